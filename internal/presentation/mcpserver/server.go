package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ynab-mcp-server/internal/domain/identity"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

const (
	// ServerName MCPサーバー名
	ServerName = "YNAB MCP Server"
	// ServerVersion MCPサーバーのバージョン
	ServerVersion = "1.0.0"

	// PathStreamable リクエスト/レスポンス型のエンドポイント
	PathStreamable = "/mcp"
	// PathSSE ストリーミングエンドポイント
	PathSSE = "/sse"
	// PathSSEMessage ストリーミングのメッセージチャネル
	PathSSEMessage = "/sse/message"
)

// ToolServer ツールの登録先と各トランスポートを束ねる
type ToolServer struct {
	srv     *server.MCPServer
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tools   []string
	nextID  atomic.Int64
}

// NewToolServer 新しいToolServerを作成
func NewToolServer(logger *otelinfra.Logger, metrics *otelinfra.Metrics) *ToolServer {
	return &ToolServer{
		srv: server.NewMCPServer(
			ServerName,
			ServerVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		logger:  logger,
		metrics: metrics,
	}
}

// ToolNames 登録済みのツール名
func (s *ToolServer) ToolNames() []string {
	out := make([]string, len(s.tools))
	copy(out, s.tools)
	return out
}

// addTool 計測とログを付けてツールを登録する
func (s *ToolServer) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	name := tool.Name
	s.srv.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mode := "anonymous"
		if id, ok := identity.FromContext(ctx); ok {
			mode = string(id.Mode)
		}

		result, err := handler(ctx, req)
		isError := err != nil || (result != nil && result.IsError)
		s.metrics.RecordToolCall(ctx, name, mode, isError)

		fields := map[string]interface{}{
			"tool":      name,
			"auth_mode": mode,
		}
		if isError {
			s.logger.Warn(ctx, "Tool call failed", fields)
		} else {
			s.logger.Debug(ctx, "Tool call completed", fields)
		}
		return result, err
	})
	s.tools = append(s.tools, name)
}

// ToolResult 呼び出し結果
type ToolResult struct {
	Text    string
	IsError bool
}

type rpcResponse struct {
	Result *struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Call 同じ登録内容に対してプロセス内でtools/callを実行する
func (s *ToolServer) Call(ctx context.Context, name string, args map[string]interface{}) (*ToolResult, error) {
	if args == nil {
		args = map[string]interface{}{}
	}
	raw, err := json.Marshal(map[string]interface{}{
		"jsonrpc": mcp.JSONRPC_VERSION,
		"id":      s.nextID.Add(1),
		"method":  string(mcp.MethodToolsCall),
		"params": map[string]interface{}{
			"name":      name,
			"arguments": args,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool call: %w", err)
	}

	reply := s.srv.HandleMessage(ctx, raw)
	if reply == nil {
		return nil, fmt.Errorf("tool %q returned no response", name)
	}
	encoded, err := json.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tool response: %w", err)
	}

	var resp rpcResponse
	if err := json.Unmarshal(encoded, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode tool response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("tool call %q failed: %s (code %d)", name, resp.Error.Message, resp.Error.Code)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("tool %q returned an empty result", name)
	}

	out := &ToolResult{IsError: resp.Result.IsError}
	for _, c := range resp.Result.Content {
		if c.Type == "text" {
			out.Text += c.Text
		}
	}
	return out, nil
}

// identityContext リクエストコンテキストの呼び出し元をツール実行コンテキストへ引き継ぐ
func identityContext(ctx context.Context, r *http.Request) context.Context {
	if id, ok := identity.FromContext(r.Context()); ok {
		return identity.WithContext(ctx, id)
	}
	return ctx
}

// StreamableHandler リクエスト/レスポンス型トランスポート
func (s *ToolServer) StreamableHandler() http.Handler {
	return server.NewStreamableHTTPServer(
		s.srv,
		server.WithEndpointPath(PathStreamable),
		server.WithHTTPContextFunc(identityContext),
	)
}

// SSEHandler ストリーミング型トランスポート（/sse と /sse/message の両方を処理する）
func (s *ToolServer) SSEHandler() http.Handler {
	return server.NewSSEServer(
		s.srv,
		server.WithSSEEndpoint(PathSSE),
		server.WithMessageEndpoint(PathSSEMessage),
		server.WithSSEContextFunc(identityContext),
	)
}
