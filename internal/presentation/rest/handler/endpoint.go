package handler

import (
	"github.com/labstack/echo/v4"

	"ynab-mcp-server/internal/domain/identity"
)

// Endpoint 呼び出し元を明示的に受け取るハンドラ
// idがnilの場合、呼び出し元はまだ確定していない
type Endpoint interface {
	Handle(c echo.Context, id *identity.Identity) error
}

// EndpointFunc 関数をEndpointとして扱うアダプタ
type EndpointFunc func(c echo.Context, id *identity.Identity) error

// Handle Endpointの実装
func (f EndpointFunc) Handle(c echo.Context, id *identity.Identity) error {
	return f(c, id)
}
