package freecurrency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ynab-mcp-server/internal/infrastructure/config"
	"ynab-mcp-server/internal/infrastructure/observability/otel"
)

const upstreamName = "freecurrencyapi"

// Client freecurrencyapi.com クライアント
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	metrics    *otel.Metrics
}

// NewClient 新しいClientを作成
func NewClient(cfg *config.ConversionConfig, metrics *otel.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		metrics: metrics,
	}
}

// Configured APIキーが設定されているか
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Latest 1 base あたりの target の最新レートを取得
func (c *Client) Latest(ctx context.Context, base, target string) (decimal.Decimal, error) {
	query := url.Values{}
	query.Set("apikey", c.apiKey)
	query.Set("base_currency", base)
	query.Set("currencies", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest?"+query.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamCall(ctx, upstreamName, "Latest", 0, time.Since(start).Seconds())
		return decimal.Zero, err
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstreamCall(ctx, upstreamName, "Latest", resp.StatusCode, time.Since(start).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("cannot http GET %v%v: %v", resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	var jobj interface{}
	if err := json.Unmarshal(body, &jobj); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode response: %w", err)
	}

	path := "$.data." + target
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return decimal.Zero, fmt.Errorf("Could not determine %s rate from response: %s", target, string(body))
	}
	rate, ok := jval.(float64)
	if !ok {
		return decimal.Zero, fmt.Errorf("Could not determine %s rate from response: %s", target, string(body))
	}
	return decimal.NewFromFloat(rate), nil
}
