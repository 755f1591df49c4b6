package ynab

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError YNAB APIのエラー応答
type APIError struct {
	StatusCode int
	ID         string
	Name       string
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Name, e.Detail, e.StatusCode)
}

// decodeAPIError エラー応答ボディをAPIErrorに変換する
func decodeAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Detail string `json:"detail"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Name != "" {
		apiErr.ID = payload.Error.ID
		apiErr.Name = payload.Error.Name
		apiErr.Detail = payload.Error.Detail
		return apiErr
	}

	apiErr.Name = strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	if apiErr.Name == "" {
		apiErr.Name = "unknown_error"
	}
	apiErr.Detail = strings.TrimSpace(string(body))
	if apiErr.Detail == "" {
		apiErr.Detail = http.StatusText(status)
	}
	return apiErr
}
