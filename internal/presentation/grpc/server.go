package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	authapp "ynab-mcp-server/internal/application/auth"
	"ynab-mcp-server/internal/infrastructure/config"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
	"ynab-mcp-server/internal/presentation/grpc/handler"
	"ynab-mcp-server/internal/presentation/grpc/interceptor"
	"ynab-mcp-server/internal/presentation/grpc/pb"
)

// ツール呼び出しは短いunary RPCのみ
var (
	serverKeepalive = keepalive.ServerParameters{
		MaxConnectionIdle:     time.Minute,
		MaxConnectionAge:      10 * time.Minute,
		MaxConnectionAgeGrace: 30 * time.Second,
		Time:                  30 * time.Second,
		Timeout:               5 * time.Second,
	}
	clientKeepalivePolicy = keepalive.EnforcementPolicy{
		MinTime:             10 * time.Second,
		PermitWithoutStream: true,
	}
)

// Deps gRPCサーバーが利用するサービス
type Deps struct {
	Config  *config.Config
	Logger  *otelinfra.Logger
	Metrics *otelinfra.Metrics
	Auth    *authapp.AuthApplicationService
	Tools   handler.ToolCaller
}

// Server ledger.v1.ToolServiceとヘルスチェックを提供するgRPCサーバー
type Server struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	logger   *otelinfra.Logger
}

// NewServer GRPC_PORTで待ち受けるサーバーを作成
func NewServer(deps Deps) (*Server, error) {
	address := fmt.Sprintf(":%d", deps.Config.Server.GRPCPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	return NewServerWithListener(deps, listener), nil
}

// NewServerWithListener 任意のリスナーで待ち受けるサーバーを作成
func NewServerWithListener(deps Deps, listener net.Listener) *Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptor.LoggingInterceptor(deps.Logger, deps.Metrics),
			interceptor.AuthInterceptor(deps.Auth, deps.Logger, deps.Metrics),
		),
		grpc.KeepaliveParams(serverKeepalive),
		grpc.KeepaliveEnforcementPolicy(clientKeepalivePolicy),
	)

	pb.RegisterToolServiceServer(grpcServer, handler.NewToolHandler(deps.Tools))

	healthServer := health.NewServer()
	healthServer.SetServingStatus(pb.ToolServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if deps.Config.Environment == "development" {
		reflection.Register(grpcServer)
	}

	return &Server{
		server:   grpcServer,
		health:   healthServer,
		listener: listener,
		logger:   deps.Logger,
	}
}

// Addr 待ち受けアドレス
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start 接続の受け付けを開始する。停止するまで戻らない
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "gRPC server starting", map[string]interface{}{
		"address": s.Addr(),
	})
	if err := s.server.Serve(s.listener); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop 処理中の呼び出しを待って停止する。ctxの期限を過ぎたら強制停止
func (s *Server) Stop(ctx context.Context) error {
	// 新規のヘルスチェックにはNOT_SERVINGを返す
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.server.GracefulStop()
	}()

	select {
	case <-done:
		s.logger.Info(ctx, "gRPC server stopped", nil)
		return nil
	case <-ctx.Done():
		s.logger.Warn(ctx, "gRPC graceful stop timed out", nil)
		s.server.Stop()
		return ctx.Err()
	}
}
