package conversion

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ynab-mcp-server/internal/domain/ledger"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

var (
	// ErrInvalidCurrency 換算元の通貨コードが無効
	ErrInvalidCurrency = errors.New("invalid source currency")
	// ErrConversionNotConfigured 為替APIキーが未設定
	ErrConversionNotConfigured = errors.New("FREECURRENCY_API_KEY is not configured in the environment.")
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// RateProvider 為替レートの取得元
type RateProvider interface {
	Configured() bool
	Latest(ctx context.Context, base, target string) (decimal.Decimal, error)
}

// ConversionApplicationService 通貨換算アプリケーションサービス
type ConversionApplicationService struct {
	rates   RateProvider
	target  string
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewConversionApplicationService 新しいConversionApplicationServiceを作成
func NewConversionApplicationService(
	rates RateProvider,
	target string,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *ConversionApplicationService {
	return &ConversionApplicationService{
		rates:   rates,
		target:  strings.ToUpper(target),
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("conversion-service"),
	}
}

// TargetCurrency 換算先の通貨コード
func (s *ConversionApplicationService) TargetCurrency() string {
	return s.target
}

// ConvertToTarget ミリ単位の金額を換算先通貨に換算する
func (s *ConversionApplicationService) ConvertToTarget(ctx context.Context, milliunits int64, source string) (*ConversionResult, error) {
	ctx, span := s.tracer.Start(ctx, "ConversionApplicationService.ConvertToTarget")
	defer span.End()

	src := strings.ToUpper(strings.TrimSpace(source))
	if !currencyCode.MatchString(src) || src == s.target {
		return nil, fmt.Errorf("%w: Please provide a valid non-%s 3-letter currency code as `currency`.", ErrInvalidCurrency, s.target)
	}
	if s.rates == nil || !s.rates.Configured() {
		return nil, ErrConversionNotConfigured
	}

	span.SetAttributes(
		attribute.String("source_currency", src),
		attribute.String("target_currency", s.target),
		attribute.Int64("milliunits", milliunits),
	)

	rate, err := s.rates.Latest(ctx, src, s.target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Currency conversion failed", err, map[string]interface{}{
			"source_currency": src,
		})
		s.metrics.RecordError(ctx, "conversion_upstream")
		return nil, fmt.Errorf("Currency conversion failed: %w", err)
	}

	sourceUnits := ledger.Milliunits(milliunits).Decimal()
	converted := sourceUnits.Mul(rate)

	return &ConversionResult{
		SourceCurrency:      src,
		TargetCurrency:      s.target,
		SourceMilliunits:    milliunits,
		SourceUnits:         sourceUnits.StringFixed(3),
		ConvertedUnits:      converted.Round(2).InexactFloat64(),
		ConvertedMilliunits: converted.Shift(3).Round(0).IntPart(),
		Rate:                rate.String(),
	}, nil
}
