package ledger

import (
	"context"
)

// Repository 上流の台帳APIへのポート
type Repository interface {
	// ListTransactions トランザクション一覧を取得（sinceDateが空でなければその日以降）
	ListTransactions(ctx context.Context, budgetID, sinceDate string) (*TransactionsResult, error)

	// CreateTransaction トランザクションを作成
	CreateTransaction(ctx context.Context, budgetID string, tx SaveTransaction) (*SavedTransactionResult, error)

	// ListAccounts 口座一覧を取得
	ListAccounts(ctx context.Context, budgetID string) (*AccountsResult, error)

	// ListCategories カテゴリグループ一覧を取得
	ListCategories(ctx context.Context, budgetID string) (*CategoriesResult, error)

	// GetBudget 予算を取得
	GetBudget(ctx context.Context, budgetID string) (*BudgetResult, error)

	// ListPayees 支払先一覧を取得
	ListPayees(ctx context.Context, budgetID string) (*PayeesResult, error)
}
