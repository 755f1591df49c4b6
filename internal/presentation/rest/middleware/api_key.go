package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authapp "ynab-mcp-server/internal/application/auth"
	"ynab-mcp-server/internal/infrastructure/config"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

// MachineKeyMiddleware 運用者向けルートをマシン資格情報で保護するミドルウェア
func MachineKeyMiddleware(cfg *config.AuthConfig, auth *authapp.AuthApplicationService, logger *otelinfra.Logger, metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			// 共有シークレットが未設定の場合は運用者ルートを無効化
			if !cfg.MachineAccessEnabled() {
				logger.Warn(ctx, "Machine access is disabled", nil)
				metrics.RecordAuthDecision(ctx, "machine", "disabled")
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error:   "forbidden",
					Message: "Machine access is disabled",
				})
			}

			// X-API-Keyヘッダーのみ受け付ける
			apiKey, ok := auth.ExtractMachineHeader(c.Request().Header)
			if !ok {
				logger.Warn(ctx, "Missing X-API-Key header", nil)
				metrics.RecordAuthDecision(ctx, "machine", "missing")
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Missing X-API-Key header",
				})
			}

			if !auth.ValidateMachineCredential(apiKey) {
				logger.Warn(ctx, "Invalid API key", nil)
				metrics.RecordAuthDecision(ctx, "machine", "rejected")
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid API key",
				})
			}

			// IP制限のチェック（設定されている場合）
			if len(cfg.AdminAllowedIPs) > 0 {
				clientIP := getClientIP(c)
				if !isIPAllowed(clientIP, cfg.AdminAllowedIPs) {
					logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
						"ip": clientIP,
					})
					metrics.RecordAuthDecision(ctx, "machine", "ip_denied")
					return c.JSON(http.StatusForbidden, ErrorResponse{
						Error:   "forbidden",
						Message: "IP address not allowed",
					})
				}
			}

			metrics.RecordAuthDecision(ctx, "machine", "accepted")
			return next(c)
		}
	}
}

// getClientIP クライアントのIPアドレスを取得
func getClientIP(c echo.Context) string {
	// X-Forwarded-Forヘッダーから取得（プロキシ経由の場合）
	forwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if forwardedFor != "" {
		ips := strings.Split(forwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}

	realIP := c.Request().Header.Get("X-Real-IP")
	if realIP != "" {
		return strings.TrimSpace(realIP)
	}

	host, _, err := net.SplitHostPort(c.Request().RemoteAddr)
	if err != nil {
		return c.Request().RemoteAddr
	}
	return host
}

// isIPAllowed IPアドレスが許可リスト（単一IPまたはCIDR）に含まれているか
func isIPAllowed(ip string, allowedIPs []string) bool {
	parsed := net.ParseIP(ip)
	for _, allowed := range allowedIPs {
		if ip == allowed {
			return true
		}
		if !strings.Contains(allowed, "/") || parsed == nil {
			continue
		}
		_, network, err := net.ParseCIDR(allowed)
		if err == nil && network.Contains(parsed) {
			return true
		}
	}
	return false
}
