package mcpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// ErrNoEnvelope 結果テキストにJSONブロックが含まれていない
var ErrNoEnvelope = errors.New("result does not contain a json envelope")

// envelopeResult タイトル・JSONエンベロープ・サマリーからなる結果テキストを作る
func envelopeResult(title string, envelope interface{}, summary string) *mcp.CallToolResult {
	body, err := indentJSON(envelope)
	if err != nil {
		return errorResult(fmt.Sprintf("failed to encode result: %v", err))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n**Results:**\n```json\n%s\n```", title, body)
	if summary != "" {
		b.WriteString("\n\n")
		b.WriteString(summary)
	}
	return mcp.NewToolResultText(b.String())
}

// errorResult エラーをインバンドで返す
func errorResult(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError("**Error**\n\n" + message)
}

func indentJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// ExtractEnvelope 結果テキストから最初のjsonコードブロックを取り出す
func ExtractEnvelope(text string) (json.RawMessage, error) {
	src := []byte(text)
	doc := goldmark.New().Parser().Parse(gmtext.NewReader(src))

	var found []byte
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok || string(block.Language(src)) != "json" {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		found = buf.Bytes()
		return ast.WalkStop, nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNoEnvelope
	}
	if !json.Valid(found) {
		return nil, fmt.Errorf("envelope is not valid json")
	}
	return json.RawMessage(bytes.TrimSpace(found)), nil
}
