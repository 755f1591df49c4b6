package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

// MetricsMiddleware メトリクス記録ミドルウェア
func MetricsMiddleware(metrics *otelinfra.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			method := c.Request().Method
			route := routeLabel(c)

			metrics.RecordRequest(ctx, method, route)

			err := next(c)

			metrics.RecordResponseTime(ctx, method, route, time.Since(start).Seconds())

			// 委任フロー側が直接書き込んだ4xx/5xxも対象
			if status := statusOf(c, err); status >= 400 {
				errorType := "client_error"
				if status >= 500 {
					errorType = "server_error"
				}
				metrics.RecordError(ctx, errorType)
			}

			return err
		}
	}
}
