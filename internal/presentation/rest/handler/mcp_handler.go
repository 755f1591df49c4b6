package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authapp "ynab-mcp-server/internal/application/auth"
	"ynab-mcp-server/internal/domain/identity"
)

// MCPEndpoint MCPトランスポートを呼び出し元付きで実行する
type MCPEndpoint struct {
	transport http.Handler
}

// NewMCPEndpoint 新しいMCPEndpointを作成
func NewMCPEndpoint(transport http.Handler) *MCPEndpoint {
	return &MCPEndpoint{transport: transport}
}

// Handle 呼び出し元をリクエストコンテキストに設定してトランスポートに渡す
func (h *MCPEndpoint) Handle(c echo.Context, id *identity.Identity) error {
	if id == nil {
		return authapp.ErrMissingToken
	}
	req := c.Request()
	ctx := identity.WithContext(req.Context(), id)
	h.transport.ServeHTTP(c.Response(), req.WithContext(ctx))
	return nil
}
