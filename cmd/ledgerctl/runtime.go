package main

import (
	"context"
	"fmt"
	"os"

	authapp "ynab-mcp-server/internal/application/auth"
	conversionapp "ynab-mcp-server/internal/application/conversion"
	ledgerapp "ynab-mcp-server/internal/application/ledger"
	"ynab-mcp-server/internal/domain/identity"
	"ynab-mcp-server/internal/infrastructure/config"
	"ynab-mcp-server/internal/infrastructure/freecurrency"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
	"ynab-mcp-server/internal/infrastructure/ynab"
	"ynab-mcp-server/internal/presentation/mcpserver"
)

// runtime CLIが使う設定とサービス一式
type runtime struct {
	cfg   *config.Config
	auth  *authapp.AuthApplicationService
	tools *mcpserver.ToolServer
}

// newRuntime 環境変数から設定を読み込みツールレジストリを組み立てる
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if level == "info" {
		level = "warn"
	}
	logger := otelinfra.NewConsoleLogger(os.Stderr, level)

	ledgerService := ledgerapp.NewLedgerApplicationService(
		ynab.NewClient(&cfg.Ledger, nil),
		cfg.Ledger.BudgetID,
		logger,
		nil,
	)
	conversionService := conversionapp.NewConversionApplicationService(
		freecurrency.NewClient(&cfg.Conversion, nil),
		cfg.Conversion.TargetCurrency,
		logger,
		nil,
	)

	tools := mcpserver.NewToolServer(logger, nil)
	tools.RegisterLedgerTools(&cfg.Ledger, ledgerService)
	tools.RegisterConversionTools(conversionService)

	return &runtime{
		cfg:   cfg,
		auth:  authapp.NewAuthApplicationService(&cfg.Auth, &cfg.OAuth, logger),
		tools: tools,
	}, nil
}

// call サービスIDでツールを実行する
func (r *runtime) call(ctx context.Context, name string, args map[string]interface{}) (*mcpserver.ToolResult, error) {
	ctx = identity.WithContext(ctx, r.auth.SynthesizeServiceIdentity())
	return r.tools.Call(ctx, name, args)
}
