package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"ynab-mcp-server/internal/domain/ledger"
	otelinfra "ynab-mcp-server/internal/infrastructure/observability/otel"
)

const (
	defaultLimit = 10
	maxLimit     = 100

	unknownAccount  = "Unknown Account"
	unknownCategory = "Unknown Category"
)

// LedgerApplicationService 台帳の取得・作成と名前解決を行うアプリケーションサービス
type LedgerApplicationService struct {
	repo     ledger.Repository
	budgetID string
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

// NewLedgerApplicationService 新しいLedgerApplicationServiceを作成
func NewLedgerApplicationService(
	repo ledger.Repository,
	budgetID string,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *LedgerApplicationService {
	return &LedgerApplicationService{
		repo:     repo,
		budgetID: budgetID,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("ledger-service"),
		now:      time.Now,
	}
}

// WithClock 現在時刻の取得元を差し替える
func (s *LedgerApplicationService) WithClock(now func() time.Time) *LedgerApplicationService {
	s.now = now
	return s
}

// ListTransactions トランザクション一覧を取得し、口座名とカテゴリ名を解決する
func (s *LedgerApplicationService) ListTransactions(ctx context.Context, filters *TransactionFilters) (*TransactionsEnvelope, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.ListTransactions")
	defer span.End()

	if filters == nil {
		filters = &TransactionFilters{}
	}
	limit := clampLimit(filters.Limit)

	span.SetAttributes(
		attribute.Int("limit", limit),
		attribute.Bool("has_search_text", filters.SearchText != ""),
		attribute.String("since_date", filters.SinceDate),
	)

	sinceDate := ""
	if strings.TrimSpace(filters.SinceDate) != "" {
		normalized, err := ledger.FormatDate(filters.SinceDate, s.now())
		if err != nil {
			return nil, s.fail(ctx, span, "Failed to fetch transactions", err)
		}
		sinceDate = normalized
	}

	s.logger.Debug(ctx, "Fetching transactions", map[string]interface{}{
		"since_date": sinceDate,
		"limit":      limit,
	})

	// 取得と名前解決用の参照データは独立しているため並行に取得する
	var (
		txResult *ledger.TransactionsResult
		lookups  *nameLookups
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.repo.ListTransactions(gctx, s.budgetID, sinceDate)
		if err != nil {
			return err
		}
		txResult = res
		return nil
	})
	g.Go(func() error {
		res, err := s.fetchLookups(gctx)
		if err != nil {
			return err
		}
		lookups = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch transactions", err)
	}

	filtered := filterTransactions(txResult.Transactions, filters)
	total := len(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	items := make([]ListedTransaction, 0, len(filtered))
	for i := range filtered {
		items = append(items, ListedTransaction{
			TransactionView: lookups.view(&filtered[i]),
			Deleted:         filtered[i].Deleted,
		})
	}

	span.SetAttributes(
		attribute.Int("total_count", total),
		attribute.Int("returned_count", len(items)),
	)

	return &TransactionsEnvelope{
		Transactions:    items,
		ServerKnowledge: txResult.ServerKnowledge,
		TotalCount:      total,
		ReturnedCount:   len(items),
	}, nil
}

// CreateTransaction トランザクションを作成する
func (s *LedgerApplicationService) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*CreatedTransactionEnvelope, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.CreateTransaction")
	defer span.End()

	save, err := s.buildSaveTransaction(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Warn(ctx, "Rejected transaction request", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	span.SetAttributes(
		attribute.String("account_id", save.AccountID),
		attribute.Int64("amount_milliunits", save.Amount.Int64()),
		attribute.String("date", save.Date),
	)

	s.logger.Info(ctx, "Creating transaction", map[string]interface{}{
		"account_id":        save.AccountID,
		"amount_milliunits": save.Amount.Int64(),
		"date":              save.Date,
	})

	result, err := s.repo.CreateTransaction(ctx, s.budgetID, *save)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to create transaction", err)
	}
	if result.Transaction == nil {
		return nil, s.fail(ctx, span, "Failed to create transaction", ledger.ErrNoTransactionReturned)
	}

	lookups, err := s.fetchLookups(ctx)
	if err != nil {
		// 書き込みは完了しているため作成済みIDを添えて返す
		return nil, s.fail(ctx, span, "Failed to create transaction", &EnrichmentError{
			TransactionID: result.Transaction.ID,
			Err:           err,
		})
	}

	s.logger.Info(ctx, "Transaction created", map[string]interface{}{
		"transaction_id":   result.Transaction.ID,
		"server_knowledge": result.ServerKnowledge,
	})

	return &CreatedTransactionEnvelope{
		Transaction:     lookups.view(result.Transaction),
		ServerKnowledge: result.ServerKnowledge,
	}, nil
}

// ListCategories カテゴリグループ一覧を取得する
func (s *LedgerApplicationService) ListCategories(ctx context.Context, includeHidden, includeDetails bool) (*CategoriesEnvelope, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.ListCategories")
	defer span.End()

	span.SetAttributes(
		attribute.Bool("include_hidden", includeHidden),
		attribute.Bool("include_details", includeDetails),
	)

	result, err := s.repo.ListCategories(ctx, s.budgetID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch categories", err)
	}

	groups := make([]CategoryGroupView, 0, len(result.CategoryGroups))
	for _, group := range result.CategoryGroups {
		// 非表示フラグではなく削除フラグで絞り込む
		if !includeHidden && group.Deleted {
			continue
		}
		view := CategoryGroupView{
			ID:         group.ID,
			Name:       group.Name,
			Categories: make([]CategoryView, 0, len(group.Categories)),
		}
		if includeDetails {
			view.Details = &CategoryGroupDetails{Hidden: group.Hidden, Deleted: group.Deleted}
		}
		for i := range group.Categories {
			cat := &group.Categories[i]
			if !includeHidden && cat.Deleted {
				continue
			}
			cv := CategoryView{ID: cat.ID, Name: cat.Name}
			if includeDetails {
				var goalTarget *float64
				if cat.HasGoalTarget() {
					goalTarget = ledger.DisplayPtr(cat.GoalTarget)
				}
				cv.Details = &CategoryDetails{
					Budgeted:   cat.Budgeted.Display(),
					Activity:   cat.Activity.Display(),
					Balance:    cat.Balance.Display(),
					Hidden:     cat.Hidden,
					Deleted:    cat.Deleted,
					GoalType:   cat.GoalType,
					GoalTarget: goalTarget,
				}
			}
			view.Categories = append(view.Categories, cv)
		}
		groups = append(groups, view)
	}

	return &CategoriesEnvelope{
		CategoryGroups:  groups,
		ServerKnowledge: result.ServerKnowledge,
	}, nil
}

// ListAccounts 口座一覧を取得する
func (s *LedgerApplicationService) ListAccounts(ctx context.Context, includeDeleted bool) (*AccountsEnvelope, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.ListAccounts")
	defer span.End()

	span.SetAttributes(attribute.Bool("include_deleted", includeDeleted))

	result, err := s.repo.ListAccounts(ctx, s.budgetID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch accounts", err)
	}

	accounts := make([]AccountView, 0, len(result.Accounts))
	for _, acc := range result.Accounts {
		if !includeDeleted && acc.Deleted {
			continue
		}
		accounts = append(accounts, AccountView{
			ID:               acc.ID,
			Name:             acc.Name,
			Type:             acc.Type,
			Balance:          acc.Balance.Display(),
			ClearedBalance:   acc.ClearedBalance.Display(),
			UnclearedBalance: acc.UnclearedBalance.Display(),
			Note:             acc.Note,
			Closed:           acc.Closed,
			Deleted:          acc.Deleted,
		})
	}

	return &AccountsEnvelope{
		Accounts:        accounts,
		ServerKnowledge: result.ServerKnowledge,
	}, nil
}

// GetBudgetSummary 予算の概要を取得する
func (s *LedgerApplicationService) GetBudgetSummary(ctx context.Context) (*BudgetSummaryEnvelope, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.GetBudgetSummary")
	defer span.End()

	result, err := s.repo.GetBudget(ctx, s.budgetID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch budget summary", err)
	}

	b := result.Budget
	return &BudgetSummaryEnvelope{
		Budget: BudgetView{
			ID:             b.ID,
			Name:           b.Name,
			LastModifiedOn: b.LastModifiedOn,
			FirstMonth:     b.FirstMonth,
			LastMonth:      b.LastMonth,
			CurrencyFormat: b.CurrencyFormat,
		},
		ServerKnowledge: result.ServerKnowledge,
	}, nil
}

// ListPayees 支払先一覧を取得する
func (s *LedgerApplicationService) ListPayees(ctx context.Context, searchText string) (*PayeesEnvelope, error) {
	ctx, span := s.tracer.Start(ctx, "LedgerApplicationService.ListPayees")
	defer span.End()

	result, err := s.repo.ListPayees(ctx, s.budgetID)
	if err != nil {
		return nil, s.fail(ctx, span, "Failed to fetch payees", err)
	}

	needle := strings.ToLower(searchText)
	payees := make([]PayeeView, 0, len(result.Payees))
	for _, p := range result.Payees {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		payees = append(payees, PayeeView{
			ID:                p.ID,
			Name:              p.Name,
			TransferAccountID: p.TransferAccountID,
			Deleted:           p.Deleted,
		})
	}

	return &PayeesEnvelope{
		Payees:          payees,
		ServerKnowledge: result.ServerKnowledge,
	}, nil
}

// buildSaveTransaction リクエストを検証し上流に送る形へ変換する
func (s *LedgerApplicationService) buildSaveTransaction(req *CreateTransactionRequest) (*ledger.SaveTransaction, error) {
	if req == nil || strings.TrimSpace(req.AccountID) == "" {
		return nil, ledger.ErrAccountIDRequired
	}
	if err := ledger.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}

	cleared := ledger.ClearedStatusUncleared
	if req.Cleared != "" {
		cs, err := ledger.NewClearedStatus(req.Cleared)
		if err != nil {
			return nil, err
		}
		cleared = cs
	}

	var flag *ledger.FlagColor
	if req.FlagColor != "" {
		fc, err := ledger.NewFlagColor(req.FlagColor)
		if err != nil {
			return nil, err
		}
		flag = &fc
	}

	date, err := ledger.FormatDate(req.Date, s.now())
	if err != nil {
		return nil, err
	}

	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}

	var categoryID *string
	if id := strings.TrimSpace(req.CategoryID); id != "" {
		categoryID = &id
	}

	return &ledger.SaveTransaction{
		AccountID:  strings.TrimSpace(req.AccountID),
		Date:       date,
		Amount:     ledger.ToMilliunits(req.Amount),
		PayeeName:  ledger.SanitizeText(req.PayeeName),
		CategoryID: categoryID,
		Memo:       ledger.SanitizeText(req.Memo),
		Cleared:    cleared,
		Approved:   approved,
		FlagColor:  flag,
	}, nil
}

// fetchLookups 口座とカテゴリの名前解決用マップを並行に取得する
func (s *LedgerApplicationService) fetchLookups(ctx context.Context) (*nameLookups, error) {
	var (
		accounts   *ledger.AccountsResult
		categories *ledger.CategoriesResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := s.repo.ListAccounts(gctx, s.budgetID)
		if err != nil {
			return err
		}
		accounts = res
		return nil
	})
	g.Go(func() error {
		res, err := s.repo.ListCategories(gctx, s.budgetID)
		if err != nil {
			return err
		}
		categories = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return newNameLookups(accounts, categories), nil
}

// fail エラーをスパンとログに記録し操作名を付けて返す
func (s *LedgerApplicationService) fail(ctx context.Context, span trace.Span, prefix string, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	s.logger.Error(ctx, prefix, err, map[string]interface{}{
		"budget_id": s.budgetID,
	})
	s.metrics.RecordError(ctx, "ledger_upstream")
	return fmt.Errorf("%s: %w", prefix, err)
}

// EnrichmentError 作成済みトランザクションの名前解決に失敗した
type EnrichmentError struct {
	TransactionID string
	Err           error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("transaction %s was created but name lookup failed: %v", e.TransactionID, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// IsValidationError 上流呼び出し前に拒否された入力エラーか
func IsValidationError(err error) bool {
	for _, target := range []error{
		ledger.ErrAccountIDRequired,
		ledger.ErrInvalidAmount,
		ledger.ErrAmountOutOfRange,
		ledger.ErrInvalidClearedStatus,
		ledger.ErrInvalidFlagColor,
		ledger.ErrInvalidDate,
		ledger.ErrInvalidID,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// filterTransactions 検索語、口座、カテゴリの順に絞り込む
func filterTransactions(txs []ledger.Transaction, f *TransactionFilters) []ledger.Transaction {
	needle := strings.ToLower(f.SearchText)
	out := make([]ledger.Transaction, 0, len(txs))
	for _, tx := range txs {
		if needle != "" && !containsFold(tx.PayeeName, needle) && !containsFold(tx.Memo, needle) {
			continue
		}
		if f.AccountID != "" && tx.AccountID != f.AccountID {
			continue
		}
		if f.CategoryID != "" && (tx.CategoryID == nil || *tx.CategoryID != f.CategoryID) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

func containsFold(s *string, lowerNeedle string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), lowerNeedle)
}
