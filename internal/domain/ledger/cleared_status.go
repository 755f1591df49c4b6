package ledger

import (
	"fmt"
)

// ClearedStatus トランザクションの消込状態を表す値オブジェクト
type ClearedStatus string

const (
	ClearedStatusCleared    ClearedStatus = "cleared"    // 消込済み
	ClearedStatusUncleared  ClearedStatus = "uncleared"  // 未消込
	ClearedStatusReconciled ClearedStatus = "reconciled" // 照合済み
)

// NewClearedStatus 新しいClearedStatusを作成
func NewClearedStatus(s string) (ClearedStatus, error) {
	switch ClearedStatus(s) {
	case ClearedStatusCleared, ClearedStatusUncleared, ClearedStatusReconciled:
		return ClearedStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidClearedStatus, s)
	}
}

// String 文字列表現を返す
func (cs ClearedStatus) String() string {
	return string(cs)
}

// ClearedStatusValues スキーマ用の列挙値
func ClearedStatusValues() []string {
	return []string{
		ClearedStatusCleared.String(),
		ClearedStatusUncleared.String(),
		ClearedStatusReconciled.String(),
	}
}
