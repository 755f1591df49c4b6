package ledger

import "errors"

var (
	// ErrInvalidAmount 金額が数値として無効
	ErrInvalidAmount = errors.New("transaction amount must be a valid number")
	// ErrAmountOutOfRange 金額が許容範囲外
	ErrAmountOutOfRange = errors.New("transaction amount must be between -999999999 and 999999999")
	// ErrInvalidDate 日付が解釈できない
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidClearedStatus clearedステータスが無効
	ErrInvalidClearedStatus = errors.New("invalid cleared status")
	// ErrInvalidFlagColor フラグカラーが無効
	ErrInvalidFlagColor = errors.New("invalid flag color")
	// ErrInvalidID IDがUUID形式ではない
	ErrInvalidID = errors.New("invalid id")
	// ErrAccountIDRequired account_idが未指定
	ErrAccountIDRequired = errors.New("account_id is required")
	// ErrNoTransactionReturned 作成成功の応答にトランザクションが含まれていない
	ErrNoTransactionReturned = errors.New("Transaction creation failed - no transaction returned")
)
