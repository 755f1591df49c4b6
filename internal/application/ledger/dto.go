package ledger

import (
	"encoding/json"

	"ynab-mcp-server/internal/domain/ledger"
)

// TransactionFilters トランザクション一覧の絞り込み条件
type TransactionFilters struct {
	SearchText string
	AccountID  string
	CategoryID string
	SinceDate  string
	Limit      int // 0以下は10、100超は100
}

// CreateTransactionRequest トランザクション作成リクエスト
type CreateTransactionRequest struct {
	AccountID  string
	Amount     float64 // 表示単位
	Date       string  // optional: 省略時は当日
	PayeeName  string
	CategoryID string
	Memo       string
	Cleared    string // optional: "cleared", "uncleared", "reconciled"
	Approved   *bool  // optional: 省略時はtrue
	FlagColor  string
}

// NamedRef IDと名前の組
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TransactionView 名前解決済みのトランザクション
type TransactionView struct {
	ID               string    `json:"id"`
	Date             string    `json:"date"`
	Amount           float64   `json:"amount"`
	AmountMilliunits int64     `json:"amount_milliunits"`
	PayeeName        *string   `json:"payee_name"`
	Memo             *string   `json:"memo"`
	Cleared          string    `json:"cleared"`
	Approved         bool      `json:"approved"`
	FlagColor        *string   `json:"flag_color"`
	Account          NamedRef  `json:"account"`
	Category         *NamedRef `json:"category"`
}

// ListedTransaction 一覧に含まれるトランザクション
type ListedTransaction struct {
	TransactionView
	Deleted bool `json:"deleted"`
}

// TransactionsEnvelope トランザクション一覧の応答
type TransactionsEnvelope struct {
	Transactions    []ListedTransaction `json:"transactions"`
	ServerKnowledge int64               `json:"server_knowledge"`
	TotalCount      int                 `json:"total_count"`
	ReturnedCount   int                 `json:"returned_count"`
}

// CreatedTransactionEnvelope トランザクション作成の応答
type CreatedTransactionEnvelope struct {
	Transaction     TransactionView `json:"transaction"`
	ServerKnowledge int64           `json:"server_knowledge"`
}

// CategoryDetails 詳細表示時のみ含まれるカテゴリ項目
type CategoryDetails struct {
	Budgeted   float64  `json:"budgeted"`
	Activity   float64  `json:"activity"`
	Balance    float64  `json:"balance"`
	Hidden     bool     `json:"hidden"`
	Deleted    bool     `json:"deleted"`
	GoalType   *string  `json:"goal_type"`
	GoalTarget *float64 `json:"goal_target"`
}

// CategoryView カテゴリ
type CategoryView struct {
	ID      string
	Name    string
	Details *CategoryDetails
}

// MarshalJSON 詳細がある場合のみ詳細項目を展開する
func (v CategoryView) MarshalJSON() ([]byte, error) {
	type base struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if v.Details == nil {
		return json.Marshal(base{ID: v.ID, Name: v.Name})
	}
	return json.Marshal(struct {
		base
		*CategoryDetails
	}{base{ID: v.ID, Name: v.Name}, v.Details})
}

// CategoryGroupDetails 詳細表示時のみ含まれるグループ項目
type CategoryGroupDetails struct {
	Hidden  bool `json:"hidden"`
	Deleted bool `json:"deleted"`
}

// CategoryGroupView カテゴリグループ
type CategoryGroupView struct {
	ID         string
	Name       string
	Categories []CategoryView
	Details    *CategoryGroupDetails
}

// MarshalJSON 詳細がある場合のみ詳細項目を展開する
func (v CategoryGroupView) MarshalJSON() ([]byte, error) {
	type base struct {
		ID         string         `json:"id"`
		Name       string         `json:"name"`
		Categories []CategoryView `json:"categories"`
	}
	categories := v.Categories
	if categories == nil {
		categories = []CategoryView{}
	}
	b := base{ID: v.ID, Name: v.Name, Categories: categories}
	if v.Details == nil {
		return json.Marshal(b)
	}
	return json.Marshal(struct {
		base
		*CategoryGroupDetails
	}{b, v.Details})
}

// CategoriesEnvelope カテゴリ一覧の応答
type CategoriesEnvelope struct {
	CategoryGroups  []CategoryGroupView `json:"category_groups"`
	ServerKnowledge int64               `json:"server_knowledge"`
}

// AccountView 口座
type AccountView struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	Balance          float64 `json:"balance"`
	ClearedBalance   float64 `json:"cleared_balance"`
	UnclearedBalance float64 `json:"uncleared_balance"`
	Note             *string `json:"note"`
	Closed           bool    `json:"closed"`
	Deleted          bool    `json:"deleted"`
}

// AccountsEnvelope 口座一覧の応答
type AccountsEnvelope struct {
	Accounts        []AccountView `json:"accounts"`
	ServerKnowledge int64         `json:"server_knowledge"`
}

// BudgetView 予算の概要
type BudgetView struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	LastModifiedOn *string                `json:"last_modified_on"`
	FirstMonth     *string                `json:"first_month"`
	LastMonth      *string                `json:"last_month"`
	CurrencyFormat *ledger.CurrencyFormat `json:"currency_format"`
}

// BudgetSummaryEnvelope 予算概要の応答
type BudgetSummaryEnvelope struct {
	Budget          BudgetView `json:"budget"`
	ServerKnowledge int64      `json:"server_knowledge"`
}

// PayeeView 支払先
type PayeeView struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	TransferAccountID *string `json:"transfer_account_id"`
	Deleted           bool    `json:"deleted"`
}

// PayeesEnvelope 支払先一覧の応答
type PayeesEnvelope struct {
	Payees          []PayeeView `json:"payees"`
	ServerKnowledge int64       `json:"server_knowledge"`
}
