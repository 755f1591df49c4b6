package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics メトリクス定義
type Metrics struct {
	// ツール呼び出し数
	ToolCallCount metric.Int64Counter

	// 上流API呼び出し数
	UpstreamCallCount metric.Int64Counter

	// 上流API応答時間
	UpstreamDuration metric.Float64Histogram

	// 認証判定数
	AuthDecisionCount metric.Int64Counter

	// リクエスト数
	RequestCount metric.Int64Counter

	// レスポンス時間
	ResponseTime metric.Float64Histogram

	// エラー率
	ErrorCount metric.Int64Counter
}

// NewMetrics 新しいMetricsを作成
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	toolCallCount, err := meter.Int64Counter(
		"tool_calls_total",
		metric.WithDescription("Total number of MCP tool invocations"),
	)
	if err != nil {
		return nil, err
	}

	upstreamCallCount, err := meter.Int64Counter(
		"upstream_calls_total",
		metric.WithDescription("Total number of upstream API calls"),
	)
	if err != nil {
		return nil, err
	}

	upstreamDuration, err := meter.Float64Histogram(
		"upstream_call_duration_seconds",
		metric.WithDescription("Upstream API call duration in seconds"),
	)
	if err != nil {
		return nil, err
	}

	authDecisionCount, err := meter.Int64Counter(
		"auth_decisions_total",
		metric.WithDescription("Total number of authentication decisions"),
	)
	if err != nil {
		return nil, err
	}

	requestCount, err := meter.Int64Counter(
		"requests_total",
		metric.WithDescription("Total number of requests"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"response_time_seconds",
		metric.WithDescription("Response time in seconds"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"errors_total",
		metric.WithDescription("Total number of errors"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ToolCallCount:     toolCallCount,
		UpstreamCallCount: upstreamCallCount,
		UpstreamDuration:  upstreamDuration,
		AuthDecisionCount: authDecisionCount,
		RequestCount:      requestCount,
		ResponseTime:      responseTime,
		ErrorCount:        errorCount,
	}, nil
}

// RecordToolCall ツール呼び出しを記録
func (m *Metrics) RecordToolCall(ctx context.Context, tool, mode string, isError bool) {
	if m == nil {
		return
	}
	m.ToolCallCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("auth_mode", mode),
			attribute.Bool("is_error", isError),
		),
	)
}

// RecordUpstreamCall 上流API呼び出しを記録
func (m *Metrics) RecordUpstreamCall(ctx context.Context, upstream, operation string, status int, duration float64) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("upstream", upstream),
		attribute.String("operation", operation),
		attribute.Int("status", status),
	)
	m.UpstreamCallCount.Add(ctx, 1, attrs)
	m.UpstreamDuration.Record(ctx, duration, attrs)
}

// RecordAuthDecision 認証判定を記録
func (m *Metrics) RecordAuthDecision(ctx context.Context, mode, outcome string) {
	if m == nil {
		return
	}
	m.AuthDecisionCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("auth_mode", mode),
			attribute.String("outcome", outcome),
		),
	)
}

// RecordRequest リクエストを記録
func (m *Metrics) RecordRequest(ctx context.Context, method, path string) {
	if m == nil {
		return
	}
	m.RequestCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordResponseTime レスポンス時間を記録
func (m *Metrics) RecordResponseTime(ctx context.Context, method, path string, duration float64) {
	if m == nil {
		return
	}
	m.ResponseTime.Record(ctx, duration,
		metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("path", path),
		),
	)
}

// RecordError エラーを記録
func (m *Metrics) RecordError(ctx context.Context, errorType string) {
	if m == nil {
		return
	}
	m.ErrorCount.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error_type", errorType),
		),
	)
}
