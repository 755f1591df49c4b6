package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"ynab-mcp-server/internal/domain/ledger"
	"ynab-mcp-server/internal/infrastructure/config"
	"ynab-mcp-server/internal/infrastructure/observability/otel"
)

const upstreamName = "ynab"

// maxResponseBytes 応答ボディの上限
const maxResponseBytes = 32 << 20

// Client YNAB REST API v1 クライアント
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	metrics    *otel.Metrics
}

var _ ledger.Repository = (*Client)(nil)

// NewClient 新しいClientを作成
func NewClient(cfg *config.LedgerConfig, metrics *otel.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.APIToken,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
					return "YNAB " + r.Method + " " + r.URL.Path
				}),
			),
		},
		metrics: metrics,
	}
}

type transactionsResponse struct {
	Data struct {
		Transactions    []ledger.Transaction `json:"transactions"`
		ServerKnowledge int64                `json:"server_knowledge"`
	} `json:"data"`
}

type saveTransactionResponse struct {
	Data struct {
		TransactionIDs  []string            `json:"transaction_ids"`
		Transaction     *ledger.Transaction `json:"transaction"`
		ServerKnowledge int64               `json:"server_knowledge"`
	} `json:"data"`
}

type accountsResponse struct {
	Data struct {
		Accounts        []ledger.Account `json:"accounts"`
		ServerKnowledge int64            `json:"server_knowledge"`
	} `json:"data"`
}

type categoriesResponse struct {
	Data struct {
		CategoryGroups  []ledger.CategoryGroup `json:"category_groups"`
		ServerKnowledge int64                  `json:"server_knowledge"`
	} `json:"data"`
}

type budgetResponse struct {
	Data struct {
		Budget          ledger.Budget `json:"budget"`
		ServerKnowledge int64         `json:"server_knowledge"`
	} `json:"data"`
}

type payeesResponse struct {
	Data struct {
		Payees          []ledger.Payee `json:"payees"`
		ServerKnowledge int64          `json:"server_knowledge"`
	} `json:"data"`
}

// ListTransactions トランザクション一覧を取得
func (c *Client) ListTransactions(ctx context.Context, budgetID, sinceDate string) (*ledger.TransactionsResult, error) {
	query := url.Values{}
	if sinceDate != "" {
		query.Set("since_date", sinceDate)
	}

	var resp transactionsResponse
	if err := c.do(ctx, "ListTransactions", http.MethodGet, budgetPath(budgetID, "transactions"), query, nil, &resp); err != nil {
		return nil, err
	}
	return &ledger.TransactionsResult{
		Transactions:    resp.Data.Transactions,
		ServerKnowledge: resp.Data.ServerKnowledge,
	}, nil
}

// CreateTransaction トランザクションを作成
func (c *Client) CreateTransaction(ctx context.Context, budgetID string, tx ledger.SaveTransaction) (*ledger.SavedTransactionResult, error) {
	body := struct {
		Transaction ledger.SaveTransaction `json:"transaction"`
	}{Transaction: tx}

	var resp saveTransactionResponse
	if err := c.do(ctx, "CreateTransaction", http.MethodPost, budgetPath(budgetID, "transactions"), nil, body, &resp); err != nil {
		return nil, err
	}
	return &ledger.SavedTransactionResult{
		TransactionIDs:  resp.Data.TransactionIDs,
		Transaction:     resp.Data.Transaction,
		ServerKnowledge: resp.Data.ServerKnowledge,
	}, nil
}

// ListAccounts 口座一覧を取得
func (c *Client) ListAccounts(ctx context.Context, budgetID string) (*ledger.AccountsResult, error) {
	var resp accountsResponse
	if err := c.do(ctx, "ListAccounts", http.MethodGet, budgetPath(budgetID, "accounts"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &ledger.AccountsResult{
		Accounts:        resp.Data.Accounts,
		ServerKnowledge: resp.Data.ServerKnowledge,
	}, nil
}

// ListCategories カテゴリグループ一覧を取得
func (c *Client) ListCategories(ctx context.Context, budgetID string) (*ledger.CategoriesResult, error) {
	var resp categoriesResponse
	if err := c.do(ctx, "ListCategories", http.MethodGet, budgetPath(budgetID, "categories"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &ledger.CategoriesResult{
		CategoryGroups:  resp.Data.CategoryGroups,
		ServerKnowledge: resp.Data.ServerKnowledge,
	}, nil
}

// GetBudget 予算を取得
func (c *Client) GetBudget(ctx context.Context, budgetID string) (*ledger.BudgetResult, error) {
	var resp budgetResponse
	if err := c.do(ctx, "GetBudget", http.MethodGet, budgetPath(budgetID, ""), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &ledger.BudgetResult{
		Budget:          resp.Data.Budget,
		ServerKnowledge: resp.Data.ServerKnowledge,
	}, nil
}

// ListPayees 支払先一覧を取得
func (c *Client) ListPayees(ctx context.Context, budgetID string) (*ledger.PayeesResult, error) {
	var resp payeesResponse
	if err := c.do(ctx, "ListPayees", http.MethodGet, budgetPath(budgetID, "payees"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &ledger.PayeesResult{
		Payees:          resp.Data.Payees,
		ServerKnowledge: resp.Data.ServerKnowledge,
	}, nil
}

func budgetPath(budgetID, resource string) string {
	p := "/budgets/" + url.PathEscape(budgetID)
	if resource != "" {
		p += "/" + resource
	}
	return p
}

// do リクエストを送りJSON応答をoutにデコードする
func (c *Client) do(ctx context.Context, operation, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamCall(ctx, upstreamName, operation, 0, time.Since(start).Seconds())
		return err
	}
	defer resp.Body.Close()
	c.metrics.RecordUpstreamCall(ctx, upstreamName, operation, resp.StatusCode, time.Since(start).Seconds())

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
