package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"ynab-mcp-server/internal/presentation/mcpserver"
)

// output ツール結果の出力設定
type output struct {
	json  bool
	width int
}

func (o *output) render(w io.Writer, res *mcpserver.ToolResult) error {
	if res.IsError {
		return fmt.Errorf("%s", strings.TrimPrefix(res.Text, "**Error**\n\n"))
	}

	if o.json {
		env, err := mcpserver.ExtractEnvelope(res.Text)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(env))
		return err
	}

	width := o.width
	if width <= 0 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := r.Render(res.Text)
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	_, err = fmt.Fprint(w, out)
	return err
}
