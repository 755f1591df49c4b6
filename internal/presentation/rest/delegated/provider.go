package delegated

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	authapp "ynab-mcp-server/internal/application/auth"
	"ynab-mcp-server/internal/domain/identity"
	"ynab-mcp-server/internal/infrastructure/config"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
	"ynab-mcp-server/internal/presentation/rest/handler"
	restmiddleware "ynab-mcp-server/internal/presentation/rest/middleware"
)

const (
	// Realm WWW-Authenticateのrealm
	Realm = "ynab-mcp"

	PathAuthorize         = "/authorize"
	PathRegister          = "/register"
	PathToken             = "/token"
	PathHealth            = "/health"
	PathAdminTokens       = "/admin/tokens"
	PathAuthServerMeta    = "/.well-known/oauth-authorization-server"
	PathProtectedResource = "/.well-known/oauth-protected-resource"
)

// Provider 委任認可フローの境界。認可そのものは外部の発行元に委ねる
type Provider struct {
	echo      *echo.Echo
	cfg       *config.Config
	auth      *authapp.AuthApplicationService
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	issuerURL *url.URL
}

// NewProvider 新しいProviderを作成
func NewProvider(
	cfg *config.Config,
	auth *authapp.AuthApplicationService,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) (*Provider, error) {
	p := &Provider{
		echo:    echo.New(),
		cfg:     cfg,
		auth:    auth,
		logger:  logger,
		metrics: metrics,
	}
	if cfg.OAuth.Enabled() {
		u, err := url.Parse(cfg.OAuth.IssuerURL)
		if err != nil {
			return nil, err
		}
		p.issuerURL = u
	}

	e := p.echo
	e.HideBanner = true
	e.HidePort = true
	// ErrorHandlerMiddlewareで処理される
	e.HTTPErrorHandler = func(err error, c echo.Context) {}
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))

	e.GET(PathAuthorize, p.authorize)
	e.POST(PathRegister, p.unavailable, p.proxy())
	e.POST(PathToken, p.unavailable, p.proxy())
	e.GET(PathAuthServerMeta, p.authorizationServerMetadata)
	e.GET(PathProtectedResource, p.protectedResourceMetadata)

	// ヘルスチェックエンドポイント（認証不要）
	e.GET(PathHealth, func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// 運用者向けの委任トークン発行（マシン資格情報が必要）
	authHandler := handler.NewAuthHandler(auth)
	e.POST(PathAdminTokens, authHandler.IssueToken,
		restmiddleware.MachineKeyMiddleware(&cfg.Auth, auth, logger, metrics))

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "no handler for "+c.Request().URL.Path)
	})

	return p, nil
}

// Handle APIハンドラ（ゲート）を登録する
func (p *Provider) Handle(path string, h echo.HandlerFunc) {
	p.echo.Any(path, h)
}

// ServeHTTP http.Handlerの実装
func (p *Provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.echo.ServeHTTP(w, r)
}

// Endpoint 委任フローのエンドポイント実装
// 呼び出し元が確定していればそのまま渡し、そうでなければ委任トークンを検証する
func (p *Provider) Endpoint(next handler.Endpoint) handler.Endpoint {
	return handler.EndpointFunc(func(c echo.Context, id *identity.Identity) error {
		if id != nil {
			return next.Handle(c, id)
		}

		ctx := c.Request().Context()
		token, ok := p.auth.ExtractBearerToken(c.Request().Header)
		if !ok {
			p.metrics.RecordAuthDecision(ctx, string(identity.ModeDelegated), "missing")
			p.challenge(c, "")
			return authapp.ErrMissingToken
		}

		verified, err := p.auth.VerifyDelegatedToken(ctx, token)
		if err != nil {
			p.metrics.RecordAuthDecision(ctx, string(identity.ModeDelegated), "rejected")
			p.challenge(c, "invalid_token")
			return err
		}

		p.metrics.RecordAuthDecision(ctx, string(identity.ModeDelegated), "accepted")
		return next.Handle(c, verified)
	})
}

// challenge 401応答のWWW-Authenticateヘッダーを設定する
func (p *Provider) challenge(c echo.Context, errCode string) {
	v := `Bearer realm="` + Realm + `", resource_metadata="` + p.baseURL(c) + PathProtectedResource + `"`
	if errCode != "" {
		v += `, error="` + errCode + `"`
	}
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, v)
}

// authorize 発行元の認可画面へリダイレクトする（クエリはそのまま引き継ぐ）
func (p *Provider) authorize(c echo.Context) error {
	if p.issuerURL == nil {
		return authapp.ErrIssuerNotConfigured
	}
	target := p.cfg.OAuth.IssuerURL + PathAuthorize
	if raw := c.Request().URL.RawQuery; raw != "" {
		target += "?" + raw
	}
	return c.Redirect(http.StatusFound, target)
}

// unavailable 発行元が未設定の場合のみ到達する
func (p *Provider) unavailable(c echo.Context) error {
	return authapp.ErrIssuerNotConfigured
}

// proxy /register と /token を発行元へ中継する
func (p *Provider) proxy() echo.MiddlewareFunc {
	if p.issuerURL == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	balancer := middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: p.issuerURL}})
	return middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: balancer,
		ModifyResponse: func(res *http.Response) error {
			p.logger.Info(res.Request.Context(), "Delegated authorization request proxied", map[string]interface{}{
				"path":        res.Request.URL.Path,
				"status_code": res.StatusCode,
			})
			return nil
		},
	})
}

// authorizationServerMetadata 認可サーバーメタデータ（RFC 8414）
func (p *Provider) authorizationServerMetadata(c echo.Context) error {
	if p.issuerURL == nil {
		return authapp.ErrIssuerNotConfigured
	}
	base := p.baseURL(c)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"issuer":                                base,
		"authorization_endpoint":                base + PathAuthorize,
		"token_endpoint":                        base + PathToken,
		"registration_endpoint":                 base + PathRegister,
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"code_challenge_methods_supported":      []string{"S256"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_basic", "client_secret_post", "none"},
	})
}

// protectedResourceMetadata 保護リソースメタデータ（RFC 9728）
func (p *Provider) protectedResourceMetadata(c echo.Context) error {
	base := p.baseURL(c)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"resource":                 base,
		"authorization_servers":    []string{base},
		"bearer_methods_supported": []string{"header"},
	})
}

// baseURL 公開URL。未設定の場合はリクエストから組み立てる
func (p *Provider) baseURL(c echo.Context) string {
	if p.cfg.Server.PublicURL != "" {
		return p.cfg.Server.PublicURL
	}
	return strings.TrimRight(c.Scheme()+"://"+c.Request().Host, "/")
}
