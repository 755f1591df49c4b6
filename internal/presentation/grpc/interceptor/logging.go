package interceptor

import (
	"context"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

// LoggingInterceptor 呼び出しのログとメトリクスを記録するインターセプター
func LoggingInterceptor(logger *otelinfra.Logger, metrics *otelinfra.Metrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		metrics.RecordRequest(ctx, "GRPC", info.FullMethod)

		resp, err := handler(ctx, req)

		duration := time.Since(start)
		metrics.RecordResponseTime(ctx, "GRPC", info.FullMethod, duration.Seconds())

		fields := map[string]interface{}{
			"method":      info.FullMethod,
			"code":        status.Code(err).String(),
			"duration_ms": duration.Milliseconds(),
			"client_ip":   clientIP(ctx),
		}
		if err != nil {
			metrics.RecordError(ctx, "grpc_"+strings.ToLower(status.Code(err).String()))
			logger.Warn(ctx, "gRPC call failed", fields)
		} else {
			logger.Info(ctx, "gRPC call completed", fields)
		}
		return resp, err
	}
}

// clientIP プロキシ経由のメタデータ、なければ接続元からIPアドレスを取得
func clientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if forwardedFor := md.Get("x-forwarded-for"); len(forwardedFor) > 0 {
			return strings.TrimSpace(strings.Split(forwardedFor[0], ",")[0])
		}
		if realIP := md.Get("x-real-ip"); len(realIP) > 0 {
			return realIP[0]
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return ""
}
