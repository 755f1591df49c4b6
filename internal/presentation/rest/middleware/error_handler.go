package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	authapp "ynab-mcp-server/internal/application/auth"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

// ErrorResponse エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorHandlerMiddleware エラーハンドリングミドルウェア
func ErrorHandlerMiddleware(logger *otelinfra.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			// ストリーミング中などで既に応答済みの場合は書き込めない
			if c.Response().Committed {
				logger.Warn(c.Request().Context(), "Error after response was committed", map[string]interface{}{
					"error": err.Error(),
					"path":  c.Request().URL.Path,
				})
				return nil
			}

			return handleError(c, err, logger)
		}
	}
}

// handleError エラーを処理して適切なHTTPレスポンスを返す
func handleError(c echo.Context, err error, logger *otelinfra.Logger) error {
	ctx := c.Request().Context()

	// 認証エラー（チャレンジヘッダーは呼び出し側で設定済み）
	if errors.Is(err, authapp.ErrMissingToken) ||
		errors.Is(err, authapp.ErrInvalidToken) ||
		errors.Is(err, authapp.ErrDelegatedNotConfigured) {
		logger.Warn(ctx, "Unauthorized", map[string]interface{}{
			"error": err.Error(),
			"path":  c.Request().URL.Path,
		})
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: err.Error(),
		})
	}

	if errors.Is(err, authapp.ErrIssuerNotConfigured) {
		logger.Warn(ctx, "Delegated authorization unavailable", map[string]interface{}{
			"path": c.Request().URL.Path,
		})
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "delegated_authorization_unavailable",
			Message: err.Error(),
		})
	}

	// EchoのHTTPエラー
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		logger.Warn(ctx, "HTTP error", map[string]interface{}{
			"status_code": httpErr.Code,
			"message":     httpErr.Message,
		})
		message := ""
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(httpErr.Code)
		}
		return c.JSON(httpErr.Code, ErrorResponse{
			Error:   http.StatusText(httpErr.Code),
			Message: message,
		})
	}

	// 予期しないエラー
	logger.Error(ctx, "Internal server error", err, map[string]interface{}{
		"path": c.Request().URL.Path,
	})
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_server_error",
		Message: "An unexpected error occurred",
	})
}
