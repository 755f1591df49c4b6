package rest

import (
	"github.com/labstack/echo/v4"

	authapp "ynab-mcp-server/internal/application/auth"
	"ynab-mcp-server/internal/domain/identity"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
	"ynab-mcp-server/internal/presentation/rest/handler"
)

// NewGate マシン資格情報と委任フローの二経路を振り分けるハンドラを作成
// 有効なマシン資格情報があればサービス用の呼び出し元を、なければnilをendpointに渡す
func NewGate(
	endpoint handler.Endpoint,
	auth *authapp.AuthApplicationService,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		if candidate, ok := auth.ExtractMachineCredential(c.Request().Header); ok && auth.ValidateMachineCredential(candidate) {
			metrics.RecordAuthDecision(ctx, string(identity.ModeMachine), "accepted")
			logger.Debug(ctx, "Machine credential accepted", map[string]interface{}{
				"path": c.Request().URL.Path,
			})
			return endpoint.Handle(c, auth.SynthesizeServiceIdentity())
		}

		return endpoint.Handle(c, nil)
	}
}
