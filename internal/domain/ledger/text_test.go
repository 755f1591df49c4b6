package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *string
	}{
		{name: "正常系: 前後の空白を除去", input: "  Coffee Shop  ", want: strPtr("Coffee Shop")},
		{name: "正常系: そのまま", input: "memo", want: strPtr("memo")},
		{name: "正常系: 空文字列はnil", input: "", want: nil},
		{name: "正常系: 空白のみはnil", input: " \t\n ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeText(tt.input))
		})
	}
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   error
	}{
		{name: "正常系: 通常の金額", amount: 10.5, want: nil},
		{name: "正常系: 上限ちょうど", amount: MaxAmount, want: nil},
		{name: "正常系: 下限ちょうど", amount: MinAmount, want: nil},
		{name: "異常系: NaN", amount: math.NaN(), want: ErrInvalidAmount},
		{name: "異常系: 無限大", amount: math.Inf(1), want: ErrInvalidAmount},
		{name: "異常系: 上限超過", amount: MaxAmount + 1, want: ErrAmountOutOfRange},
		{name: "異常系: 下限未満", amount: MinAmount - 1, want: ErrAmountOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateAmount(tt.amount))
		})
	}
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("3fa85f64-5717-4562-b3fc-2c963f66afa6"))
	assert.ErrorIs(t, ValidateID("not-a-uuid"), ErrInvalidID)
	assert.ErrorIs(t, ValidateID(""), ErrInvalidID)
}

func strPtr(s string) *string {
	return &s
}
