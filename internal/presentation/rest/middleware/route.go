package middleware

import (
	"github.com/labstack/echo/v4"
)

// knownPaths メトリクスとスパン名に実パスを使ってよい固定パス
var knownPaths = map[string]struct{}{
	"/mcp":                                    {},
	"/sse":                                    {},
	"/sse/message":                            {},
	"/authorize":                              {},
	"/register":                               {},
	"/token":                                  {},
	"/health":                                 {},
	"/admin/tokens":                           {},
	"/.well-known/oauth-authorization-server": {},
	"/.well-known/oauth-protected-resource":   {},
}

// routeLabel 属性値として使うルート名。未知のパスはまとめる
func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" && p != "/*" {
		return p
	}
	if _, ok := knownPaths[c.Request().URL.Path]; ok {
		return c.Request().URL.Path
	}
	return "unmatched"
}

// statusOf レスポンスのステータス。未書き込みのエラーはエラーから推定する
func statusOf(c echo.Context, err error) int {
	if c.Response().Committed || err == nil {
		return c.Response().Status
	}
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 500
}
