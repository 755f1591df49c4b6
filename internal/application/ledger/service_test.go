package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ynab-mcp-server/internal/domain/ledger"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

const testBudgetID = "budget-1"

// MockRepository モック台帳リポジトリ
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListTransactions(ctx context.Context, budgetID, sinceDate string) (*ledger.TransactionsResult, error) {
	args := m.Called(ctx, budgetID, sinceDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TransactionsResult), args.Error(1)
}

func (m *MockRepository) CreateTransaction(ctx context.Context, budgetID string, tx ledger.SaveTransaction) (*ledger.SavedTransactionResult, error) {
	args := m.Called(ctx, budgetID, tx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.SavedTransactionResult), args.Error(1)
}

func (m *MockRepository) ListAccounts(ctx context.Context, budgetID string) (*ledger.AccountsResult, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AccountsResult), args.Error(1)
}

func (m *MockRepository) ListCategories(ctx context.Context, budgetID string) (*ledger.CategoriesResult, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CategoriesResult), args.Error(1)
}

func (m *MockRepository) GetBudget(ctx context.Context, budgetID string) (*ledger.BudgetResult, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BudgetResult), args.Error(1)
}

func (m *MockRepository) ListPayees(ctx context.Context, budgetID string) (*ledger.PayeesResult, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.PayeesResult), args.Error(1)
}

func strPtr(s string) *string { return &s }

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
}

func newTestService(repo ledger.Repository) *LedgerApplicationService {
	return NewLedgerApplicationService(repo, testBudgetID, otelinfra.NopLogger(), nil).WithClock(fixedNow)
}

func accountsFixture() *ledger.AccountsResult {
	return &ledger.AccountsResult{
		Accounts: []ledger.Account{
			{ID: "acc-1", Name: "Checking", Type: "checking", Balance: 120500, ClearedBalance: 100000, UnclearedBalance: 20500},
			{ID: "acc-2", Name: "Savings", Type: "savings", Balance: 5000000},
			{ID: "acc-old", Name: "Old Card", Type: "creditCard", Deleted: true},
		},
		ServerKnowledge: 11,
	}
}

func categoriesFixture() *ledger.CategoriesResult {
	goal := ledger.Milliunits(250000)
	zero := ledger.Milliunits(0)
	return &ledger.CategoriesResult{
		CategoryGroups: []ledger.CategoryGroup{
			{
				ID:   "grp-1",
				Name: "Everyday",
				Categories: []ledger.Category{
					{ID: "cat-food", Name: "Groceries", Budgeted: 300000, Activity: -120000, Balance: 180000, GoalTarget: &goal, GoalType: strPtr("TB")},
					{ID: "cat-coffee", Name: "Coffee", Budgeted: 50000, GoalTarget: &zero},
					{ID: "cat-gone", Name: "Gone", Deleted: true},
					{ID: "cat-hidden", Name: "Hidden But Live", Hidden: true},
				},
			},
			{
				ID:      "grp-old",
				Name:    "Old Group",
				Deleted: true,
				Categories: []ledger.Category{
					{ID: "cat-legacy", Name: "Legacy"},
				},
			},
		},
		ServerKnowledge: 12,
	}
}

func transactionsFixture() *ledger.TransactionsResult {
	return &ledger.TransactionsResult{
		Transactions: []ledger.Transaction{
			{ID: "tx-1", Date: "2024-03-01", Amount: -4500, PayeeName: strPtr("Blue Bottle Coffee"), AccountID: "acc-1", CategoryID: strPtr("cat-coffee"), Cleared: ledger.ClearedStatusCleared, Approved: true},
			{ID: "tx-2", Date: "2024-03-02", Amount: -120000, PayeeName: strPtr("Supermarket"), Memo: strPtr("weekly shop"), AccountID: "acc-1", CategoryID: strPtr("cat-food"), Cleared: ledger.ClearedStatusUncleared},
			{ID: "tx-3", Date: "2024-03-03", Amount: -3000, PayeeName: strPtr("Kiosk"), Memo: strPtr("Morning COFFEE"), AccountID: "acc-2", CategoryID: strPtr("cat-unknown")},
			{ID: "tx-4", Date: "2024-03-04", Amount: 1000000, PayeeName: nil, AccountID: "acc-missing", CategoryID: nil},
		},
		ServerKnowledge: 99,
	}
}

func TestLedgerApplicationService_ListTransactions(t *testing.T) {
	tests := []struct {
		name       string
		filters    *TransactionFilters
		setupMocks func(*MockRepository)
		wantError  string
		checkFunc  func(*testing.T, *TransactionsEnvelope)
	}{
		{
			name:    "正常系: 検索語は支払先とメモを大文字小文字を区別せず照合",
			filters: &TransactionFilters{SearchText: "coffee"},
			setupMocks: func(m *MockRepository) {
				m.On("ListTransactions", mock.Anything, testBudgetID, "").Return(transactionsFixture(), nil)
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)
			},
			checkFunc: func(t *testing.T, env *TransactionsEnvelope) {
				require.Len(t, env.Transactions, 2)
				assert.Equal(t, "tx-1", env.Transactions[0].ID)
				assert.Equal(t, "tx-3", env.Transactions[1].ID)
				assert.Equal(t, 2, env.TotalCount)
				assert.Equal(t, 2, env.ReturnedCount)
				assert.Equal(t, int64(99), env.ServerKnowledge)
			},
		},
		{
			name:    "正常系: 名前解決と未知IDの扱い",
			filters: &TransactionFilters{},
			setupMocks: func(m *MockRepository) {
				m.On("ListTransactions", mock.Anything, testBudgetID, "").Return(transactionsFixture(), nil)
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)
			},
			checkFunc: func(t *testing.T, env *TransactionsEnvelope) {
				require.Len(t, env.Transactions, 4)

				first := env.Transactions[0]
				assert.Equal(t, "Checking", first.Account.Name)
				require.NotNil(t, first.Category)
				assert.Equal(t, "Coffee", first.Category.Name)
				assert.Equal(t, -4.5, first.Amount)
				assert.Equal(t, int64(-4500), first.AmountMilliunits)

				third := env.Transactions[2]
				require.NotNil(t, third.Category)
				assert.Equal(t, "Unknown Category", third.Category.Name)

				fourth := env.Transactions[3]
				assert.Equal(t, "Unknown Account", fourth.Account.Name)
				assert.Nil(t, fourth.Category)
				assert.Equal(t, float64(1000), fourth.Amount)
			},
		},
		{
			name:    "正常系: 件数制限は絞り込み後の総数を保つ",
			filters: &TransactionFilters{AccountID: "acc-1", Limit: 1},
			setupMocks: func(m *MockRepository) {
				m.On("ListTransactions", mock.Anything, testBudgetID, "").Return(transactionsFixture(), nil)
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)
			},
			checkFunc: func(t *testing.T, env *TransactionsEnvelope) {
				assert.Equal(t, 2, env.TotalCount)
				assert.Equal(t, 1, env.ReturnedCount)
				require.Len(t, env.Transactions, 1)
				assert.Equal(t, "tx-1", env.Transactions[0].ID)
			},
		},
		{
			name:    "正常系: カテゴリで絞り込み",
			filters: &TransactionFilters{CategoryID: "cat-food"},
			setupMocks: func(m *MockRepository) {
				m.On("ListTransactions", mock.Anything, testBudgetID, "").Return(transactionsFixture(), nil)
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)
			},
			checkFunc: func(t *testing.T, env *TransactionsEnvelope) {
				require.Len(t, env.Transactions, 1)
				assert.Equal(t, "tx-2", env.Transactions[0].ID)
			},
		},
		{
			name:    "正常系: 一致なしは空の結果",
			filters: &TransactionFilters{SearchText: "nothing-matches"},
			setupMocks: func(m *MockRepository) {
				m.On("ListTransactions", mock.Anything, testBudgetID, "").Return(transactionsFixture(), nil)
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)
			},
			checkFunc: func(t *testing.T, env *TransactionsEnvelope) {
				assert.Empty(t, env.Transactions)
				assert.Equal(t, 0, env.TotalCount)
				assert.Equal(t, 0, env.ReturnedCount)
			},
		},
		{
			name:    "正常系: 開始日は正規化して上流に渡す",
			filters: &TransactionFilters{SinceDate: "2024/01/05"},
			setupMocks: func(m *MockRepository) {
				m.On("ListTransactions", mock.Anything, testBudgetID, "2024-01-05").Return(&ledger.TransactionsResult{ServerKnowledge: 5}, nil)
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)
			},
			checkFunc: func(t *testing.T, env *TransactionsEnvelope) {
				assert.Equal(t, int64(5), env.ServerKnowledge)
				assert.Empty(t, env.Transactions)
			},
		},
		{
			name:    "異常系: 取得失敗は操作名付きで返す",
			filters: &TransactionFilters{},
			setupMocks: func(m *MockRepository) {
				m.On("ListTransactions", mock.Anything, testBudgetID, "").Return(nil, errors.New("boom"))
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil).Maybe()
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil).Maybe()
			},
			wantError: "Failed to fetch transactions: boom",
		},
		{
			name:    "異常系: 参照データの取得失敗",
			filters: &TransactionFilters{},
			setupMocks: func(m *MockRepository) {
				m.On("ListTransactions", mock.Anything, testBudgetID, "").Return(transactionsFixture(), nil).Maybe()
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(nil, errors.New("accounts down"))
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil).Maybe()
			},
			wantError: "Failed to fetch transactions: accounts down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMocks(repo)

			env, err := newTestService(repo).ListTransactions(context.Background(), tt.filters)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantError, err.Error())
				assert.Nil(t, env)
				return
			}
			require.NoError(t, err)
			assert.LessOrEqual(t, env.ReturnedCount, env.TotalCount)
			assert.Len(t, env.Transactions, env.ReturnedCount)
			tt.checkFunc(t, env)
			repo.AssertExpectations(t)
		})
	}
}

func TestLedgerApplicationService_ListTransactions_LimitBounds(t *testing.T) {
	many := &ledger.TransactionsResult{}
	for i := 0; i < 150; i++ {
		many.Transactions = append(many.Transactions, ledger.Transaction{ID: "tx", AccountID: "acc-1"})
	}

	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"未指定は10件", 0, 10},
		{"負数は10件", -5, 10},
		{"上限は100件", 500, 100},
		{"範囲内はそのまま", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("ListTransactions", mock.Anything, testBudgetID, "").Return(many, nil)
			repo.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
			repo.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)

			env, err := newTestService(repo).ListTransactions(context.Background(), &TransactionFilters{Limit: tt.limit})
			require.NoError(t, err)
			assert.Equal(t, tt.want, env.ReturnedCount)
			assert.Equal(t, 150, env.TotalCount)
		})
	}
}

func TestLedgerApplicationService_CreateTransaction(t *testing.T) {
	approvedFalse := false

	tests := []struct {
		name       string
		req        *CreateTransactionRequest
		setupMocks func(*MockRepository)
		wantError  string
		checkFunc  func(*testing.T, *MockRepository, *CreatedTransactionEnvelope)
	}{
		{
			name: "正常系: 既定値と金額変換",
			req: &CreateTransactionRequest{
				AccountID: "acc-1",
				Amount:    10.5,
				PayeeName: "  Corner Shop  ",
				Memo:      "   ",
			},
			setupMocks: func(m *MockRepository) {
				expected := ledger.SaveTransaction{
					AccountID: "acc-1",
					Date:      "2024-03-15",
					Amount:    10500,
					PayeeName: strPtr("Corner Shop"),
					Cleared:   ledger.ClearedStatusUncleared,
					Approved:  true,
				}
				m.On("CreateTransaction", mock.Anything, testBudgetID, expected).Return(&ledger.SavedTransactionResult{
					TransactionIDs: []string{"tx-new"},
					Transaction: &ledger.Transaction{
						ID: "tx-new", Date: "2024-03-15", Amount: 10500, AccountID: "acc-1",
						PayeeName: strPtr("Corner Shop"), Cleared: ledger.ClearedStatusUncleared, Approved: true,
					},
					ServerKnowledge: 100,
				}, nil)
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)
			},
			checkFunc: func(t *testing.T, m *MockRepository, env *CreatedTransactionEnvelope) {
				assert.Equal(t, "tx-new", env.Transaction.ID)
				assert.Equal(t, 10.5, env.Transaction.Amount)
				assert.Equal(t, int64(10500), env.Transaction.AmountMilliunits)
				assert.Equal(t, "Checking", env.Transaction.Account.Name)
				assert.Nil(t, env.Transaction.Category)
				assert.Equal(t, int64(100), env.ServerKnowledge)
			},
		},
		{
			name: "正常系: 負の端数は最も近いミリ単位に丸める",
			req: &CreateTransactionRequest{
				AccountID:  "acc-1",
				Amount:     -3.333,
				CategoryID: "cat-food",
				Cleared:    "cleared",
				Approved:   &approvedFalse,
				FlagColor:  "red",
				Date:       "2024-03-10",
			},
			setupMocks: func(m *MockRepository) {
				red := ledger.FlagColorRed
				expected := ledger.SaveTransaction{
					AccountID:  "acc-1",
					Date:       "2024-03-10",
					Amount:     -3333,
					CategoryID: strPtr("cat-food"),
					Cleared:    ledger.ClearedStatusCleared,
					Approved:   false,
					FlagColor:  &red,
				}
				m.On("CreateTransaction", mock.Anything, testBudgetID, expected).Return(&ledger.SavedTransactionResult{
					Transaction: &ledger.Transaction{
						ID: "tx-neg", Date: "2024-03-10", Amount: -3333, AccountID: "acc-1",
						CategoryID: strPtr("cat-food"), Cleared: ledger.ClearedStatusCleared, FlagColor: &red,
					},
					ServerKnowledge: 101,
				}, nil)
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)
			},
			checkFunc: func(t *testing.T, m *MockRepository, env *CreatedTransactionEnvelope) {
				assert.Equal(t, int64(-3333), env.Transaction.AmountMilliunits)
				require.NotNil(t, env.Transaction.Category)
				assert.Equal(t, "Groceries", env.Transaction.Category.Name)
				require.NotNil(t, env.Transaction.FlagColor)
				assert.Equal(t, "red", *env.Transaction.FlagColor)
			},
		},
		{
			name:       "異常系: 口座ID未指定は上流を呼ばない",
			req:        &CreateTransactionRequest{Amount: 1},
			setupMocks: func(m *MockRepository) {},
			wantError:  ledger.ErrAccountIDRequired.Error(),
		},
		{
			name:       "異常系: 範囲外の金額",
			req:        &CreateTransactionRequest{AccountID: "acc-1", Amount: 1e12},
			setupMocks: func(m *MockRepository) {},
			wantError:  ledger.ErrAmountOutOfRange.Error(),
		},
		{
			name:       "異常系: 無効なclearedステータス",
			req:        &CreateTransactionRequest{AccountID: "acc-1", Amount: 1, Cleared: "pending"},
			setupMocks: func(m *MockRepository) {},
			wantError:  "invalid cleared status: pending",
		},
		{
			name: "異常系: 作成成功だがトランザクションなし",
			req:  &CreateTransactionRequest{AccountID: "acc-1", Amount: 1},
			setupMocks: func(m *MockRepository) {
				m.On("CreateTransaction", mock.Anything, testBudgetID, mock.Anything).Return(&ledger.SavedTransactionResult{ServerKnowledge: 3}, nil)
			},
			wantError: "Failed to create transaction: Transaction creation failed - no transaction returned",
		},
		{
			name: "異常系: 上流エラー",
			req:  &CreateTransactionRequest{AccountID: "acc-1", Amount: 1},
			setupMocks: func(m *MockRepository) {
				m.On("CreateTransaction", mock.Anything, testBudgetID, mock.Anything).Return(nil, errors.New("rate limited"))
			},
			wantError: "Failed to create transaction: rate limited",
		},
		{
			name: "異常系: 作成後の名前解決失敗は作成済みIDを含めて返す",
			req:  &CreateTransactionRequest{AccountID: "acc-1", Amount: 1},
			setupMocks: func(m *MockRepository) {
				m.On("CreateTransaction", mock.Anything, testBudgetID, mock.Anything).Return(&ledger.SavedTransactionResult{
					Transaction: &ledger.Transaction{ID: "tx-written", AccountID: "acc-1"},
				}, nil)
				m.On("ListAccounts", mock.Anything, testBudgetID).Return(nil, errors.New("timeout"))
				m.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil).Maybe()
			},
			wantError: "Failed to create transaction: transaction tx-written was created but name lookup failed: timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMocks(repo)

			env, err := newTestService(repo).CreateTransaction(context.Background(), tt.req)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantError, err.Error())
				assert.Nil(t, env)
				repo.AssertExpectations(t)
				return
			}
			require.NoError(t, err)
			tt.checkFunc(t, repo, env)
			repo.AssertExpectations(t)
		})
	}
}

func TestLedgerApplicationService_CreateTransaction_EnrichmentErrorUnwraps(t *testing.T) {
	repo := new(MockRepository)
	cause := errors.New("timeout")
	repo.On("CreateTransaction", mock.Anything, testBudgetID, mock.Anything).Return(&ledger.SavedTransactionResult{
		Transaction: &ledger.Transaction{ID: "tx-written"},
	}, nil)
	repo.On("ListAccounts", mock.Anything, testBudgetID).Return(nil, cause)
	repo.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil).Maybe()

	_, err := newTestService(repo).CreateTransaction(context.Background(), &CreateTransactionRequest{AccountID: "acc-1", Amount: 2})
	require.Error(t, err)

	var enrichErr *EnrichmentError
	require.True(t, errors.As(err, &enrichErr))
	assert.Equal(t, "tx-written", enrichErr.TransactionID)
	assert.True(t, errors.Is(err, cause))
	assert.False(t, IsValidationError(err))
}

func TestLedgerApplicationService_ListCategories(t *testing.T) {
	tests := []struct {
		name           string
		includeHidden  bool
		includeDetails bool
		checkFunc      func(*testing.T, *CategoriesEnvelope)
	}{
		{
			name: "正常系: 削除済みを除外し名前のみ返す",
			checkFunc: func(t *testing.T, env *CategoriesEnvelope) {
				require.Len(t, env.CategoryGroups, 1)
				group := env.CategoryGroups[0]
				require.Len(t, group.Categories, 3)
				assert.Equal(t, "cat-hidden", group.Categories[2].ID)
				assert.Nil(t, group.Categories[0].Details)

				data, err := json.Marshal(group)
				require.NoError(t, err)
				assert.NotContains(t, string(data), "budgeted")
				assert.NotContains(t, string(data), `"hidden"`)
			},
		},
		{
			name:          "正常系: includeHiddenで削除済みも含める",
			includeHidden: true,
			checkFunc: func(t *testing.T, env *CategoriesEnvelope) {
				require.Len(t, env.CategoryGroups, 2)
				assert.Len(t, env.CategoryGroups[0].Categories, 4)
			},
		},
		{
			name:           "正常系: 詳細付き",
			includeDetails: true,
			checkFunc: func(t *testing.T, env *CategoriesEnvelope) {
				cats := env.CategoryGroups[0].Categories
				require.NotNil(t, cats[0].Details)
				assert.Equal(t, 300.0, cats[0].Details.Budgeted)
				assert.Equal(t, -120.0, cats[0].Details.Activity)
				require.NotNil(t, cats[0].Details.GoalTarget)
				assert.Equal(t, 250.0, *cats[0].Details.GoalTarget)
				// 目標額0はnull
				assert.Nil(t, cats[1].Details.GoalTarget)

				data, err := json.Marshal(env)
				require.NoError(t, err)
				assert.Contains(t, string(data), `"goal_target":null`)
				assert.Contains(t, string(data), `"server_knowledge":12`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("ListCategories", mock.Anything, testBudgetID).Return(categoriesFixture(), nil)

			env, err := newTestService(repo).ListCategories(context.Background(), tt.includeHidden, tt.includeDetails)
			require.NoError(t, err)
			assert.Equal(t, int64(12), env.ServerKnowledge)
			tt.checkFunc(t, env)
		})
	}
}

func TestLedgerApplicationService_ListAccounts(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListAccounts", mock.Anything, testBudgetID).Return(accountsFixture(), nil)
	svc := newTestService(repo)

	env, err := svc.ListAccounts(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, env.Accounts, 2)
	assert.Equal(t, 120.5, env.Accounts[0].Balance)
	assert.Equal(t, 100.0, env.Accounts[0].ClearedBalance)
	assert.Equal(t, 20.5, env.Accounts[0].UnclearedBalance)
	assert.Equal(t, int64(11), env.ServerKnowledge)

	env, err = svc.ListAccounts(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, env.Accounts, 3)
}

func TestLedgerApplicationService_UpstreamFailurePrefixes(t *testing.T) {
	cause := errors.New("unauthorized: Unauthorized (HTTP 401)")

	repo := new(MockRepository)
	repo.On("ListAccounts", mock.Anything, testBudgetID).Return(nil, cause)
	repo.On("ListCategories", mock.Anything, testBudgetID).Return(nil, cause)
	repo.On("GetBudget", mock.Anything, testBudgetID).Return(nil, cause)
	repo.On("ListPayees", mock.Anything, testBudgetID).Return(nil, cause)
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.ListAccounts(ctx, false)
	assert.EqualError(t, err, "Failed to fetch accounts: "+cause.Error())

	_, err = svc.ListCategories(ctx, false, false)
	assert.EqualError(t, err, "Failed to fetch categories: "+cause.Error())

	_, err = svc.GetBudgetSummary(ctx)
	assert.EqualError(t, err, "Failed to fetch budget summary: "+cause.Error())

	_, err = svc.ListPayees(ctx, "")
	assert.EqualError(t, err, "Failed to fetch payees: "+cause.Error())
	assert.True(t, errors.Is(err, cause))
}

func TestLedgerApplicationService_GetBudgetSummary(t *testing.T) {
	repo := new(MockRepository)
	repo.On("GetBudget", mock.Anything, testBudgetID).Return(&ledger.BudgetResult{
		Budget: ledger.Budget{
			ID:             testBudgetID,
			Name:           "Household",
			FirstMonth:     strPtr("2023-01-01"),
			CurrencyFormat: &ledger.CurrencyFormat{ISOCode: "ZAR", DecimalDigits: 2, CurrencySymbol: "R"},
		},
		ServerKnowledge: 55,
	}, nil)

	env, err := newTestService(repo).GetBudgetSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Household", env.Budget.Name)
	assert.Equal(t, "ZAR", env.Budget.CurrencyFormat.ISOCode)
	assert.Nil(t, env.Budget.LastMonth)
	assert.Equal(t, int64(55), env.ServerKnowledge)
}

func TestLedgerApplicationService_ListPayees(t *testing.T) {
	payees := &ledger.PayeesResult{
		Payees: []ledger.Payee{
			{ID: "p1", Name: "Woolworths"},
			{ID: "p2", Name: "Transfer : Savings", TransferAccountID: strPtr("acc-2")},
			{ID: "p3", Name: "WOOLIES online"},
		},
		ServerKnowledge: 8,
	}

	tests := []struct {
		name       string
		searchText string
		wantIDs    []string
	}{
		{"正常系: 検索語なし", "", []string{"p1", "p2", "p3"}},
		{"正常系: 大文字小文字を区別しない", "wool", []string{"p1", "p3"}},
		{"正常系: 一致なし", "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			repo.On("ListPayees", mock.Anything, testBudgetID).Return(payees, nil)

			env, err := newTestService(repo).ListPayees(context.Background(), tt.searchText)
			require.NoError(t, err)

			ids := make([]string, 0, len(env.Payees))
			for _, p := range env.Payees {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, int64(8), env.ServerKnowledge)
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(ledger.ErrAccountIDRequired))
	assert.True(t, IsValidationError(ledger.ErrInvalidDate))
	assert.False(t, IsValidationError(errors.New("other")))
	assert.False(t, IsValidationError(nil))
}
