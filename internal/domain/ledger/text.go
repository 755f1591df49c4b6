package ledger

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxAmount 1件あたりの最大金額（表示単位）
	MaxAmount = 999_999_999
	// MinAmount 1件あたりの最小金額（表示単位）
	MinAmount = -999_999_999
)

// SanitizeText 前後の空白を除去し、空になった場合はnilを返す
func SanitizeText(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// ValidateAmount 表示単位の金額を検証する
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return ErrInvalidAmount
	}
	if amount > MaxAmount || amount < MinAmount {
		return ErrAmountOutOfRange
	}
	return nil
}

// ValidateID 台帳のIDを検証する
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}
