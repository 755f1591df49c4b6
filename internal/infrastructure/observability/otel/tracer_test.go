package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"ynab-mcp-server/internal/infrastructure/config"
)

func TestInitTracer(t *testing.T) {
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	tests := []struct {
		name      string
		cfg       *config.OpenTelemetryConfig
		wantError string
	}{
		{
			name: "正常系: 無効の場合はNoop",
			cfg:  &config.OpenTelemetryConfig{Enabled: false},
		},
		{
			name: "正常系: stdoutエクスポーター",
			cfg: &config.OpenTelemetryConfig{
				Enabled:        true,
				TraceExporter:  "stdout",
				ServiceName:    "test-service",
				ServiceVersion: "1.0.0",
			},
		},
		{
			name: "異常系: 未対応のエクスポーター",
			cfg: &config.OpenTelemetryConfig{
				Enabled:        true,
				TraceExporter:  "unsupported",
				ServiceName:    "test-service",
				ServiceVersion: "1.0.0",
			},
			wantError: "unsupported trace exporter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := InitTracer(context.Background(), tt.cfg, "test")
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Nil(t, shutdown)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, shutdown)
			assert.NoError(t, shutdown(context.Background()))
		})
	}
}

func TestInitTracer_OTLP(t *testing.T) {
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	cfg := &config.OpenTelemetryConfig{
		Enabled:        true,
		TraceExporter:  "otlp",
		OTLPEndpoint:   "localhost:4318",
		OTLPInsecure:   true,
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
	}

	// エクスポーターの作成は接続を伴わない
	shutdown, err := InitTracer(context.Background(), cfg, "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	_ = shutdown(context.Background())
}

func TestTracer_StartSpan(t *testing.T) {
	tracer := Tracer("test-tracer")

	_, span := tracer.Start(context.Background(), "test-operation")
	assert.NotNil(t, span)
	span.End()
}
