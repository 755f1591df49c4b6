package ynab

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ynab-mcp-server/internal/domain/ledger"
	"ynab-mcp-server/internal/infrastructure/config"
)

const testBudgetID = "budget-1"

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.LedgerConfig{
		APIToken: "test-token",
		BaseURL:  srv.URL,
		Timeout:  5 * time.Second,
	}, nil)
}

func TestClient_ListTransactions(t *testing.T) {
	tests := []struct {
		name      string
		sinceDate string
		wantQuery string
	}{
		{
			name:      "正常系: 日付指定なし",
			sinceDate: "",
			wantQuery: "",
		},
		{
			name:      "正常系: 日付指定あり",
			sinceDate: "2024-01-01",
			wantQuery: "since_date=2024-01-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/budgets/budget-1/transactions", r.URL.Path)
				assert.Equal(t, tt.wantQuery, r.URL.RawQuery)
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

				w.Header().Set("Content-Type", "application/json")
				_, _ = io.WriteString(w, `{"data":{"transactions":[
					{"id":"t1","date":"2024-01-02","amount":-4500,"memo":"Coffee","cleared":"cleared","approved":true,
					 "flag_color":null,"account_id":"a1","payee_name":"Cafe","category_id":"c1","deleted":false}
				],"server_knowledge":42}}`)
			})

			result, err := client.ListTransactions(context.Background(), testBudgetID, tt.sinceDate)
			require.NoError(t, err)
			require.Len(t, result.Transactions, 1)
			assert.Equal(t, int64(42), result.ServerKnowledge)

			tx := result.Transactions[0]
			assert.Equal(t, "t1", tx.ID)
			assert.Equal(t, ledger.Milliunits(-4500), tx.Amount)
			assert.Equal(t, ledger.ClearedStatusCleared, tx.Cleared)
			assert.Nil(t, tx.FlagColor)
			require.NotNil(t, tx.PayeeName)
			assert.Equal(t, "Cafe", *tx.PayeeName)
		})
	}
}

func TestClient_CreateTransaction(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/budgets/budget-1/transactions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Transaction map[string]interface{} `json:"transaction"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a1", body.Transaction["account_id"])
		assert.Equal(t, float64(10500), body.Transaction["amount"])
		assert.Nil(t, body.Transaction["category_id"])
		assert.Equal(t, "uncleared", body.Transaction["cleared"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"transaction_ids":["t9"],"transaction":
			{"id":"t9","date":"2024-02-01","amount":10500,"cleared":"uncleared","approved":true,"account_id":"a1"},
			"server_knowledge":7}}`)
	})

	result, err := client.CreateTransaction(context.Background(), testBudgetID, ledger.SaveTransaction{
		AccountID: "a1",
		Date:      "2024-02-01",
		Amount:    10500,
		Cleared:   ledger.ClearedStatusUncleared,
		Approved:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Transaction)
	assert.Equal(t, []string{"t9"}, result.TransactionIDs)
	assert.Equal(t, "t9", result.Transaction.ID)
	assert.Equal(t, int64(7), result.ServerKnowledge)
}

func TestClient_ReadEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/budgets/budget-1/accounts":
			_, _ = io.WriteString(w, `{"data":{"accounts":[{"id":"a1","name":"Checking","type":"checking","balance":120000}],"server_knowledge":1}}`)
		case "/budgets/budget-1/categories":
			_, _ = io.WriteString(w, `{"data":{"category_groups":[{"id":"g1","name":"Bills","categories":[{"id":"c1","name":"Rent","goal_target":null}]}],"server_knowledge":2}}`)
		case "/budgets/budget-1":
			_, _ = io.WriteString(w, `{"data":{"budget":{"id":"budget-1","name":"Home","currency_format":{"iso_code":"ZAR","decimal_digits":2}},"server_knowledge":3}}`)
		case "/budgets/budget-1/payees":
			_, _ = io.WriteString(w, `{"data":{"payees":[{"id":"p1","name":"Landlord","transfer_account_id":null}],"server_knowledge":4}}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	accounts, err := client.ListAccounts(ctx, testBudgetID)
	require.NoError(t, err)
	require.Len(t, accounts.Accounts, 1)
	assert.Equal(t, ledger.Milliunits(120000), accounts.Accounts[0].Balance)
	assert.Equal(t, int64(1), accounts.ServerKnowledge)

	categories, err := client.ListCategories(ctx, testBudgetID)
	require.NoError(t, err)
	require.Len(t, categories.CategoryGroups, 1)
	assert.Nil(t, categories.CategoryGroups[0].Categories[0].GoalTarget)
	assert.Equal(t, int64(2), categories.ServerKnowledge)

	budget, err := client.GetBudget(ctx, testBudgetID)
	require.NoError(t, err)
	assert.Equal(t, "Home", budget.Budget.Name)
	require.NotNil(t, budget.Budget.CurrencyFormat)
	assert.Equal(t, "ZAR", budget.Budget.CurrencyFormat.ISOCode)

	payees, err := client.ListPayees(ctx, testBudgetID)
	require.NoError(t, err)
	require.Len(t, payees.Payees, 1)
	assert.Equal(t, int64(4), payees.ServerKnowledge)
}

func TestClient_APIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantName   string
		wantDetail string
	}{
		{
			name:       "異常系: YNAB形式のエラー",
			status:     http.StatusUnauthorized,
			body:       `{"error":{"id":"401","name":"unauthorized","detail":"Unauthorized"}}`,
			wantName:   "unauthorized",
			wantDetail: "Unauthorized",
		},
		{
			name:       "異常系: 形式外のエラー本文",
			status:     http.StatusBadGateway,
			body:       "upstream down",
			wantName:   "bad_gateway",
			wantDetail: "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.ListAccounts(context.Background(), testBudgetID)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantName, apiErr.Name)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			assert.Contains(t, err.Error(), "(HTTP ")
		})
	}
}

func TestClient_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	})

	_, err := client.ListPayees(context.Background(), testBudgetID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}
