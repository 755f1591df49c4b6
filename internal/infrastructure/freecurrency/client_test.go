package freecurrency

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ynab-mcp-server/internal/infrastructure/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&config.ConversionConfig{APIKey: "fx-key", BaseURL: srv.URL}, nil)
}

func TestClient_Latest(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantRate  string
		wantError string
	}{
		{
			name:     "正常系: レートを取得",
			status:   http.StatusOK,
			body:     `{"data":{"ZAR":18.25}}`,
			wantRate: "18.25",
		},
		{
			name:      "異常系: レートが含まれない",
			status:    http.StatusOK,
			body:      `{"data":{"EUR":0.9}}`,
			wantError: `Could not determine ZAR rate from response: {"data":{"EUR":0.9}}`,
		},
		{
			name:      "異常系: レートが数値ではない",
			status:    http.StatusOK,
			body:      `{"data":{"ZAR":"n/a"}}`,
			wantError: "Could not determine ZAR rate",
		},
		{
			name:      "異常系: HTTPエラー",
			status:    http.StatusUnauthorized,
			body:      `{"message":"Invalid authentication credentials"}`,
			wantError: "401 Unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/latest", r.URL.Path)
				assert.Equal(t, "fx-key", r.URL.Query().Get("apikey"))
				assert.Equal(t, "USD", r.URL.Query().Get("base_currency"))
				assert.Equal(t, "ZAR", r.URL.Query().Get("currencies"))
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			rate, err := client.Latest(context.Background(), "USD", "ZAR")
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRate, rate.String())
		})
	}
}

func TestClient_Configured(t *testing.T) {
	assert.True(t, NewClient(&config.ConversionConfig{APIKey: "k"}, nil).Configured())
	assert.False(t, NewClient(&config.ConversionConfig{}, nil).Configured())
}
