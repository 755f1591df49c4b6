package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClearedStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ClearedStatus
		wantErr bool
	}{
		{name: "正常系: cleared", input: "cleared", want: ClearedStatusCleared},
		{name: "正常系: uncleared", input: "uncleared", want: ClearedStatusUncleared},
		{name: "正常系: reconciled", input: "reconciled", want: ClearedStatusReconciled},
		{name: "異常系: 大文字", input: "Cleared", wantErr: true},
		{name: "異常系: 空文字列", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewClearedStatus(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidClearedStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFlagColor(t *testing.T) {
	for _, v := range FlagColorValues() {
		fc, err := NewFlagColor(v)
		require.NoError(t, err)
		assert.Equal(t, v, fc.String())
	}

	_, err := NewFlagColor("pink")
	assert.ErrorIs(t, err, ErrInvalidFlagColor)
}

func TestClearedStatusValues(t *testing.T) {
	assert.Equal(t, []string{"cleared", "uncleared", "reconciled"}, ClearedStatusValues())
}
