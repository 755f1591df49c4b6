package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "ynab-mcp-server/internal/application/auth"
	conversionapp "ynab-mcp-server/internal/application/conversion"
	ledgerapp "ynab-mcp-server/internal/application/ledger"
	"ynab-mcp-server/internal/infrastructure/config"
	"ynab-mcp-server/internal/infrastructure/freecurrency"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
	"ynab-mcp-server/internal/infrastructure/ynab"
	grpcserver "ynab-mcp-server/internal/presentation/grpc"
	"ynab-mcp-server/internal/presentation/mcpserver"
	"ynab-mcp-server/internal/presentation/rest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ynab-mcp-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()

	var logger *otelinfra.Logger
	if cfg.Environment == "development" {
		logger = otelinfra.NewConsoleLogger(os.Stderr, cfg.Log.Level)
	} else {
		logger = otelinfra.NewLogger(os.Stderr, cfg.Log.Level)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(ctx, &cfg.OpenTelemetry, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Failed to shutdown tracer", err, nil)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(ctx, &cfg.OpenTelemetry, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize meter: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Failed to shutdown meter", err, nil)
		}
	}()

	metrics, err := otelinfra.NewMetrics(cfg.OpenTelemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	// アプリケーションサービスの初期化
	ledgerService := ledgerapp.NewLedgerApplicationService(
		ynab.NewClient(&cfg.Ledger, metrics),
		cfg.Ledger.BudgetID,
		logger,
		metrics,
	)
	conversionService := conversionapp.NewConversionApplicationService(
		freecurrency.NewClient(&cfg.Conversion, metrics),
		cfg.Conversion.TargetCurrency,
		logger,
		metrics,
	)
	authService := authapp.NewAuthApplicationService(&cfg.Auth, &cfg.OAuth, logger)

	// ツールレジストリの初期化
	tools := mcpserver.NewToolServer(logger, metrics)
	tools.RegisterLedgerTools(&cfg.Ledger, ledgerService)
	tools.RegisterConversionTools(conversionService)

	if !cfg.Auth.MachineAccessEnabled() {
		logger.Warn(ctx, "API_KEY is not configured: machine access is disabled", nil)
	}
	if !cfg.OAuth.Enabled() {
		logger.Warn(ctx, "OAUTH_ISSUER_URL is not configured: delegated authorization endpoints return 503", nil)
	}

	// REST APIルーターの初期化
	router, err := rest.NewRouter(&rest.AppContext{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Auth:    authService,
		Tools:   tools,
	})
	if err != nil {
		return fmt.Errorf("failed to create router: %w", err)
	}

	// gRPCサーバーの初期化
	grpcSrv, err := grpcserver.NewServer(grpcserver.Deps{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Auth:    authService,
		Tools:   tools,
	})
	if err != nil {
		return fmt.Errorf("failed to create gRPC server: %w", err)
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	// グレースフルシャットダウンの設定
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 2)

	go func() {
		logger.Info(ctx, "HTTP server starting", map[string]interface{}{
			"address": address,
			"tools":   tools.ToolNames(),
		})
		if err := router.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := grpcSrv.Start(); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case sig := <-quit:
		logger.Info(ctx, "Shutting down servers", map[string]interface{}{"signal": sig.String()})
	case runErr = <-errCh:
		logger.Error(ctx, "Server error", runErr, nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down HTTP server", err, nil)
	}
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down gRPC server", err, nil)
	}

	logger.Info(shutdownCtx, "Servers stopped", nil)
	return runErr
}
