package interceptor

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	authapp "ynab-mcp-server/internal/application/auth"
	"ynab-mcp-server/internal/domain/identity"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

// 認証不要のサービス
var publicServicePrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

// AuthInterceptor マシン資格情報と委任トークンの二経路で認証するインターセプター
func AuthInterceptor(auth *authapp.AuthApplicationService, logger *otelinfra.Logger, metrics *otelinfra.Metrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		for _, prefix := range publicServicePrefixes {
			if strings.HasPrefix(info.FullMethod, prefix) {
				return handler(ctx, req)
			}
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			logger.Warn(ctx, "Missing metadata", nil)
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		h := headerFromMetadata(md)

		// マシン資格情報を優先
		if candidate, ok := auth.ExtractMachineCredential(h); ok && auth.ValidateMachineCredential(candidate) {
			metrics.RecordAuthDecision(ctx, string(identity.ModeMachine), "accepted")
			return handler(identity.WithContext(ctx, auth.SynthesizeServiceIdentity()), req)
		}

		token, ok := auth.ExtractBearerToken(h)
		if !ok {
			logger.Warn(ctx, "Missing credentials", map[string]interface{}{
				"method": info.FullMethod,
			})
			metrics.RecordAuthDecision(ctx, string(identity.ModeDelegated), "missing")
			return nil, status.Error(codes.Unauthenticated, "missing credentials")
		}

		id, err := auth.VerifyDelegatedToken(ctx, token)
		if err != nil {
			metrics.RecordAuthDecision(ctx, string(identity.ModeDelegated), "rejected")
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		metrics.RecordAuthDecision(ctx, string(identity.ModeDelegated), "accepted")
		return handler(identity.WithContext(ctx, id), req)
	}
}

// headerFromMetadata 認証に使うメタデータをHTTPヘッダー形式に変換する
func headerFromMetadata(md metadata.MD) http.Header {
	h := http.Header{}
	if v := md.Get("x-api-key"); len(v) > 0 {
		h.Set(authapp.HeaderAPIKey, v[0])
	}
	if v := md.Get("authorization"); len(v) > 0 {
		h.Set("Authorization", v[0])
	}
	return h
}
