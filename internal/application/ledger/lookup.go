package ledger

import (
	"ynab-mcp-server/internal/domain/ledger"
)

// nameLookups ID→名前の解決表
type nameLookups struct {
	accounts   map[string]string
	categories map[string]string
}

func newNameLookups(accounts *ledger.AccountsResult, categories *ledger.CategoriesResult) *nameLookups {
	l := &nameLookups{
		accounts:   make(map[string]string),
		categories: make(map[string]string),
	}
	if accounts != nil {
		for _, acc := range accounts.Accounts {
			l.accounts[acc.ID] = acc.Name
		}
	}
	if categories != nil {
		for _, group := range categories.CategoryGroups {
			for _, cat := range group.Categories {
				l.categories[cat.ID] = cat.Name
			}
		}
	}
	return l
}

func (l *nameLookups) accountName(id string) string {
	if name, ok := l.accounts[id]; ok && name != "" {
		return name
	}
	return unknownAccount
}

func (l *nameLookups) categoryName(id string) string {
	if name, ok := l.categories[id]; ok && name != "" {
		return name
	}
	return unknownCategory
}

// view トランザクションを名前解決済みの表示形式にする
func (l *nameLookups) view(tx *ledger.Transaction) TransactionView {
	v := TransactionView{
		ID:               tx.ID,
		Date:             tx.Date,
		Amount:           tx.Amount.Display(),
		AmountMilliunits: tx.Amount.Int64(),
		PayeeName:        tx.PayeeName,
		Memo:             tx.Memo,
		Cleared:          tx.Cleared.String(),
		Approved:         tx.Approved,
		Account: NamedRef{
			ID:   tx.AccountID,
			Name: l.accountName(tx.AccountID),
		},
	}
	if tx.FlagColor != nil {
		flag := string(*tx.FlagColor)
		v.FlagColor = &flag
	}
	if tx.CategoryID != nil && *tx.CategoryID != "" {
		v.Category = &NamedRef{
			ID:   *tx.CategoryID,
			Name: l.categoryName(*tx.CategoryID),
		}
	}
	return v
}
