package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ynab-mcp-server/internal/domain/identity"
	"ynab-mcp-server/internal/infrastructure/config"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

const (
	// HeaderAPIKey マシン資格情報ヘッダー
	HeaderAPIKey = "X-API-Key"

	serviceLogin       = "service"
	serviceDisplayName = "service-account"
	serviceEmail       = "service@local"
)

var (
	// ErrMissingToken Bearerトークンがない
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken トークンの検証に失敗
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrDelegatedNotConfigured 委任トークンの検証鍵が未設定
	ErrDelegatedNotConfigured = errors.New("delegated token verification is not configured")
	// ErrIssuerNotConfigured 委任認可の発行元が未設定
	ErrIssuerNotConfigured = errors.New("delegated authorization issuer is not configured")
)

// AuthApplicationService 認証アプリケーションサービス
type AuthApplicationService struct {
	authConfig  *config.AuthConfig
	oauthConfig *config.OAuthConfig
	logger      *otelinfra.Logger
	now         func() time.Time
}

// NewAuthApplicationService 新しいAuthApplicationServiceを作成
func NewAuthApplicationService(authConfig *config.AuthConfig, oauthConfig *config.OAuthConfig, logger *otelinfra.Logger) *AuthApplicationService {
	return &AuthApplicationService{
		authConfig:  authConfig,
		oauthConfig: oauthConfig,
		logger:      logger,
		now:         time.Now,
	}
}

// ExtractMachineHeader X-API-Keyヘッダーのみから資格情報を取得
func (s *AuthApplicationService) ExtractMachineHeader(h http.Header) (string, bool) {
	v := strings.TrimSpace(h.Get(HeaderAPIKey))
	return v, v != ""
}

// ExtractMachineCredential X-API-Key、なければAuthorizationから資格情報を取得
func (s *AuthApplicationService) ExtractMachineCredential(h http.Header) (string, bool) {
	if v, ok := s.ExtractMachineHeader(h); ok {
		return v, true
	}
	raw := strings.TrimSpace(h.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	v := stripBearer(raw)
	return v, v != ""
}

// ValidateMachineCredential 共有シークレットと定数時間で比較する
func (s *AuthApplicationService) ValidateMachineCredential(candidate string) bool {
	if candidate == "" || !s.authConfig.MachineAccessEnabled() {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.authConfig.APIKey)) == 1
}

// SynthesizeServiceIdentity マシンアクセス用の固定の呼び出し元を生成
func (s *AuthApplicationService) SynthesizeServiceIdentity() *identity.Identity {
	return &identity.Identity{
		Login:         serviceLogin,
		DisplayName:   serviceDisplayName,
		Email:         serviceEmail,
		AccessToken:   s.authConfig.ServiceAccessToken,
		APIKey:        s.authConfig.APIKey,
		Authorization: "Bearer " + s.authConfig.APIKey,
		Mode:          identity.ModeMachine,
	}
}

// ExtractBearerToken AuthorizationヘッダーのBearerトークンを取得する（X-API-Keyは参照しない）
func (s *AuthApplicationService) ExtractBearerToken(h http.Header) (string, bool) {
	raw := strings.TrimSpace(h.Get("Authorization"))
	parts := strings.Fields(raw)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// VerifyDelegatedToken 委任トークンを検証し呼び出し元を返す
func (s *AuthApplicationService) VerifyDelegatedToken(ctx context.Context, tokenString string) (*identity.Identity, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "AuthApplicationService.VerifyDelegatedToken")
	defer span.End()

	if tokenString == "" {
		return nil, ErrMissingToken
	}
	if s.oauthConfig.JWTSecret == "" {
		span.SetStatus(codes.Error, ErrDelegatedNotConfigured.Error())
		return nil, ErrDelegatedNotConfigured
	}

	claims := &delegatedClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// 署名アルゴリズムの確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.oauthConfig.JWTSecret), nil
	},
		jwt.WithIssuer(s.oauthConfig.JWTIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid token")
		s.logger.Warn(ctx, "Invalid delegated token", map[string]interface{}{
			"error": fmt.Sprint(err),
		})
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	login := claims.Login
	if login == "" {
		login = claims.Subject
	}
	if login == "" {
		s.logger.Warn(ctx, "Delegated token has no subject", nil)
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	span.SetAttributes(attribute.String("login", login))

	return &identity.Identity{
		Login:         login,
		DisplayName:   claims.Name,
		Email:         claims.Email,
		AccessToken:   claims.AccessToken,
		Authorization: "Bearer " + tokenString,
		Mode:          identity.ModeDelegated,
	}, nil
}

// IssueDelegatedToken 委任トークンを発行する（開発・運用ツール用）
func (s *AuthApplicationService) IssueDelegatedToken(ctx context.Context, req *IssueTokenRequest) (*IssueTokenResponse, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "AuthApplicationService.IssueDelegatedToken")
	defer span.End()

	span.SetAttributes(
		attribute.String("login", req.Login),
	)

	// ログイン名のバリデーション
	if req.Login == "" {
		err := fmt.Errorf("login is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Login is required", err, nil)
		return nil, err
	}
	if s.oauthConfig.JWTSecret == "" {
		return nil, ErrDelegatedNotConfigured
	}

	now := s.now()
	ttl := s.oauthConfig.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	expiresAt := now.Add(ttl)

	claims := delegatedClaims{
		Login:       req.Login,
		Name:        req.DisplayName,
		Email:       req.Email,
		AccessToken: req.AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.Login,
			Issuer:    s.oauthConfig.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.oauthConfig.JWTSecret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to issue token", err, map[string]interface{}{
			"login": req.Login,
		})
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info(ctx, "Delegated token issued", map[string]interface{}{
		"login":      req.Login,
		"expires_at": expiresAt.Unix(),
	})

	return &IssueTokenResponse{
		Token:     tokenString,
		ExpiresIn: int64(ttl.Seconds()),
		TokenType: "Bearer",
	}, nil
}

// stripBearer 大文字小文字を区別せずBearer接頭辞を取り除く
func stripBearer(v string) string {
	const prefix = "bearer"
	if len(v) > len(prefix) && strings.EqualFold(v[:len(prefix)], prefix) {
		rest := v[len(prefix):]
		trimmed := strings.TrimLeft(rest, " \t")
		if len(trimmed) < len(rest) {
			return trimmed
		}
	}
	return v
}
