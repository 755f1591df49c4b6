package ledger

// Transaction 台帳上のトランザクション
type Transaction struct {
	ID                string           `json:"id"`
	Date              string           `json:"date"`
	Amount            Milliunits       `json:"amount"`
	Memo              *string          `json:"memo"`
	Cleared           ClearedStatus    `json:"cleared"`
	Approved          bool             `json:"approved"`
	FlagColor         *FlagColor       `json:"flag_color"`
	AccountID         string           `json:"account_id"`
	AccountName       string           `json:"account_name,omitempty"`
	PayeeID           *string          `json:"payee_id"`
	PayeeName         *string          `json:"payee_name"`
	CategoryID        *string          `json:"category_id"`
	CategoryName      *string          `json:"category_name,omitempty"`
	TransferAccountID *string          `json:"transfer_account_id"`
	Deleted           bool             `json:"deleted"`
	Subtransactions   []Subtransaction `json:"subtransactions,omitempty"`
}

// Subtransaction 分割トランザクションの明細
type Subtransaction struct {
	ID         string     `json:"id"`
	Amount     Milliunits `json:"amount"`
	Memo       *string    `json:"memo"`
	PayeeName  *string    `json:"payee_name"`
	CategoryID *string    `json:"category_id"`
	Deleted    bool       `json:"deleted"`
}

// SaveTransaction 作成リクエストとして台帳に送るトランザクション
type SaveTransaction struct {
	AccountID  string        `json:"account_id"`
	Date       string        `json:"date"`
	Amount     Milliunits    `json:"amount"`
	PayeeName  *string       `json:"payee_name"`
	CategoryID *string       `json:"category_id"`
	Memo       *string       `json:"memo"`
	Cleared    ClearedStatus `json:"cleared"`
	Approved   bool          `json:"approved"`
	FlagColor  *FlagColor    `json:"flag_color"`
}

// Account 口座
type Account struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Type             string     `json:"type"`
	OnBudget         bool       `json:"on_budget"`
	Closed           bool       `json:"closed"`
	Note             *string    `json:"note"`
	Balance          Milliunits `json:"balance"`
	ClearedBalance   Milliunits `json:"cleared_balance"`
	UnclearedBalance Milliunits `json:"uncleared_balance"`
	Deleted          bool       `json:"deleted"`
}

// CategoryGroup カテゴリグループ
type CategoryGroup struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Hidden     bool       `json:"hidden"`
	Deleted    bool       `json:"deleted"`
	Categories []Category `json:"categories"`
}

// Category カテゴリ
type Category struct {
	ID              string      `json:"id"`
	CategoryGroupID string      `json:"category_group_id"`
	Name            string      `json:"name"`
	Hidden          bool        `json:"hidden"`
	Note            *string     `json:"note"`
	Budgeted        Milliunits  `json:"budgeted"`
	Activity        Milliunits  `json:"activity"`
	Balance         Milliunits  `json:"balance"`
	GoalType        *string     `json:"goal_type"`
	GoalTarget      *Milliunits `json:"goal_target"`
	Deleted         bool        `json:"deleted"`
}

// HasGoalTarget 目標額が設定されているか
func (c *Category) HasGoalTarget() bool {
	return c.GoalTarget != nil && *c.GoalTarget != 0
}

// Payee 支払先
type Payee struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	TransferAccountID *string `json:"transfer_account_id"`
	Deleted           bool    `json:"deleted"`
}

// CurrencyFormat 予算の通貨表示形式
type CurrencyFormat struct {
	ISOCode          string `json:"iso_code"`
	ExampleFormat    string `json:"example_format"`
	DecimalDigits    int    `json:"decimal_digits"`
	DecimalSeparator string `json:"decimal_separator"`
	SymbolFirst      bool   `json:"symbol_first"`
	GroupSeparator   string `json:"group_separator"`
	CurrencySymbol   string `json:"currency_symbol"`
	DisplaySymbol    bool   `json:"display_symbol"`
}

// Budget 予算のメタデータ
type Budget struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	LastModifiedOn *string         `json:"last_modified_on"`
	FirstMonth     *string         `json:"first_month"`
	LastMonth      *string         `json:"last_month"`
	CurrencyFormat *CurrencyFormat `json:"currency_format"`
}

// TransactionsResult トランザクション一覧の取得結果
type TransactionsResult struct {
	Transactions    []Transaction
	ServerKnowledge int64
}

// SavedTransactionResult トランザクション作成結果
type SavedTransactionResult struct {
	TransactionIDs  []string
	Transaction     *Transaction
	ServerKnowledge int64
}

// AccountsResult 口座一覧の取得結果
type AccountsResult struct {
	Accounts        []Account
	ServerKnowledge int64
}

// CategoriesResult カテゴリ一覧の取得結果
type CategoriesResult struct {
	CategoryGroups  []CategoryGroup
	ServerKnowledge int64
}

// PayeesResult 支払先一覧の取得結果
type PayeesResult struct {
	Payees          []Payee
	ServerKnowledge int64
}

// BudgetResult 予算の取得結果
type BudgetResult struct {
	Budget          Budget
	ServerKnowledge int64
}
