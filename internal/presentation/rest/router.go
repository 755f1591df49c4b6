package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authapp "ynab-mcp-server/internal/application/auth"
	"ynab-mcp-server/internal/infrastructure/config"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
	"ynab-mcp-server/internal/presentation/mcpserver"
	"ynab-mcp-server/internal/presentation/rest/delegated"
	"ynab-mcp-server/internal/presentation/rest/handler"
	restmiddleware "ynab-mcp-server/internal/presentation/rest/middleware"
)

// AppContext 起動時に一度だけ構築し、ルーターに渡すアプリケーションコンテキスト
type AppContext struct {
	Config  *config.Config
	Logger  *otelinfra.Logger
	Metrics *otelinfra.Metrics
	Auth    *authapp.AuthApplicationService
	Tools   *mcpserver.ToolServer
}

// Router 最上位のHTTPルーター
type Router struct {
	echo     *echo.Echo
	app      *AppContext
	provider *delegated.Provider
	gates    map[string]echo.HandlerFunc
}

// NewRouter 新しいRouterを作成
func NewRouter(app *AppContext) (*Router, error) {
	provider, err := delegated.NewProvider(app.Config, app.Auth, app.Logger, app.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create delegated provider: %w", err)
	}

	// /sse と /sse/message は同じトランスポートを共有する
	streamable := handler.NewMCPEndpoint(app.Tools.StreamableHandler())
	sse := handler.NewMCPEndpoint(app.Tools.SSEHandler())

	gates := map[string]echo.HandlerFunc{
		mcpserver.PathStreamable: NewGate(provider.Endpoint(streamable), app.Auth, app.Logger, app.Metrics),
		mcpserver.PathSSE:        NewGate(provider.Endpoint(sse), app.Auth, app.Logger, app.Metrics),
		mcpserver.PathSSEMessage: NewGate(provider.Endpoint(sse), app.Auth, app.Logger, app.Metrics),
	}
	for path, gate := range gates {
		provider.Handle(path, gate)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {}

	r := &Router{
		echo:     e,
		app:      app,
		provider: provider,
		gates:    gates,
	}

	setupMiddleware(e, app)
	e.Any("/*", r.dispatch)

	return r, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, app *AppContext) {
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization,
			authapp.HeaderAPIKey, "Mcp-Session-Id", "Mcp-Protocol-Version",
		},
		ExposeHeaders: []string{"Mcp-Session-Id", echo.HeaderWWWAuthenticate},
	}))

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(restmiddleware.TracingMiddleware())
	e.Use(restmiddleware.LoggingMiddleware(app.Logger))
	e.Use(restmiddleware.MetricsMiddleware(app.Metrics))
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(restmiddleware.ErrorHandlerMiddleware(app.Logger))
}

// dispatch 有効なマシン資格情報を持つゲート対象パスはゲートへ、それ以外は委任フローへ渡す
func (r *Router) dispatch(c echo.Context) error {
	if gate, ok := r.gates[c.Request().URL.Path]; ok && r.machineShortcut(c) {
		return gate(c)
	}
	r.provider.ServeHTTP(c.Response(), c.Request())
	return nil
}

// machineShortcut X-API-Keyヘッダーが有効か判定する。判定中の失敗は委任フローに任せる
func (r *Router) machineShortcut(c echo.Context) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.app.Logger.Warn(c.Request().Context(), "Machine credential check failed, falling back to delegated flow", map[string]interface{}{
				"panic": fmt.Sprint(rec),
				"path":  c.Request().URL.Path,
			})
			ok = false
		}
	}()

	key, found := r.app.Auth.ExtractMachineHeader(c.Request().Header)
	return found && r.app.Auth.ValidateMachineCredential(key)
}

// Handler ルーター全体のhttp.Handler
func (r *Router) Handler() http.Handler {
	return r.echo
}

// Start サーバーを起動
func (r *Router) Start(address string) error {
	srv := r.app.Config.Server
	return r.echo.StartServer(&http.Server{
		Addr:         address,
		ReadTimeout:  srv.ReadTimeout,
		WriteTimeout: srv.WriteTimeout,
		IdleTimeout:  srv.IdleTimeout,
	})
}

// Shutdown サーバーをシャットダウン
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
