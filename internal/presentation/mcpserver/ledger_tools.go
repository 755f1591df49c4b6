package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	ledgerapp "ynab-mcp-server/internal/application/ledger"
	"ynab-mcp-server/internal/domain/identity"
	"ynab-mcp-server/internal/domain/ledger"
	"ynab-mcp-server/internal/infrastructure/config"
)

// LedgerService 台帳ツールが利用するアプリケーションサービス
type LedgerService interface {
	ListTransactions(ctx context.Context, filters *ledgerapp.TransactionFilters) (*ledgerapp.TransactionsEnvelope, error)
	CreateTransaction(ctx context.Context, req *ledgerapp.CreateTransactionRequest) (*ledgerapp.CreatedTransactionEnvelope, error)
	ListCategories(ctx context.Context, includeHidden, includeDetails bool) (*ledgerapp.CategoriesEnvelope, error)
	ListAccounts(ctx context.Context, includeDeleted bool) (*ledgerapp.AccountsEnvelope, error)
	GetBudgetSummary(ctx context.Context) (*ledgerapp.BudgetSummaryEnvelope, error)
	ListPayees(ctx context.Context, searchText string) (*ledgerapp.PayeesEnvelope, error)
}

// RegisterLedgerTools 台帳ツールを登録する。必要な設定が欠けている場合は登録しない
func (s *ToolServer) RegisterLedgerTools(cfg *config.LedgerConfig, svc LedgerService) bool {
	if missing := cfg.Missing(); len(missing) > 0 {
		s.logger.Warn(context.Background(), "Ledger tools are NOT registered: required environment variables are missing", map[string]interface{}{
			"missing": strings.Join(missing, ", "),
		})
		return false
	}

	h := &ledgerTools{svc: svc, currency: cfg.Currency}

	s.addTool(mcp.NewTool("getTransactions",
		mcp.WithDescription("Fetch transactions with optional filtering by search text, date range, account, or category"),
		mcp.WithString("searchText", mcp.Description("Case-insensitive text matched against payee name or memo")),
		mcp.WithString("accountId", mcp.Description("Only include transactions for this account ID")),
		mcp.WithString("categoryId", mcp.Description("Only include transactions for this category ID")),
		mcp.WithString("sinceDate", mcp.Description("Only include transactions on or after this date (YYYY-MM-DD)")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of transactions to return"),
			mcp.Min(1),
			mcp.Max(100),
			mcp.DefaultNumber(10),
		),
	), h.getTransactions)

	s.addTool(mcp.NewTool("createTransaction",
		mcp.WithDescription("Create a new transaction in YNAB"),
		mcp.WithString("account_id", mcp.Required(), mcp.Description("The account ID for the transaction")),
		mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount in display units, negative for outflow (e.g. -12.5)")),
		mcp.WithString("payee_name", mcp.Description("Payee name")),
		mcp.WithString("category_id", mcp.Description("Category ID")),
		mcp.WithString("memo", mcp.Description("Transaction memo")),
		mcp.WithString("date", mcp.Description("Transaction date (YYYY-MM-DD), defaults to today")),
		mcp.WithString("cleared",
			mcp.Description("Cleared status"),
			mcp.Enum("cleared", "uncleared", "reconciled"),
		),
		mcp.WithBoolean("approved", mcp.Description("Whether the transaction is approved"), mcp.DefaultBool(true)),
		mcp.WithString("flag_color",
			mcp.Description("Flag color"),
			mcp.Enum("red", "orange", "yellow", "green", "blue", "purple"),
		),
	), h.createTransaction)

	s.addTool(mcp.NewTool("getCategories",
		mcp.WithDescription("Get all budget categories"),
		mcp.WithBoolean("includeHidden", mcp.Description("Include hidden categories"), mcp.DefaultBool(false)),
		mcp.WithBoolean("includeDetails", mcp.Description("Include balances and goal details"), mcp.DefaultBool(false)),
	), h.getCategories)

	s.addTool(mcp.NewTool("getAccounts",
		mcp.WithDescription("Get all budget accounts"),
		mcp.WithBoolean("includeDeleted", mcp.Description("Include deleted accounts"), mcp.DefaultBool(false)),
	), h.getAccounts)

	s.addTool(mcp.NewTool("getBudgetSummary",
		mcp.WithDescription("Get budget summary information"),
	), h.getBudgetSummary)

	s.addTool(mcp.NewTool("getPayees",
		mcp.WithDescription("Get all payees in the budget"),
		mcp.WithString("searchText", mcp.Description("Case-insensitive text matched against payee name")),
	), h.getPayees)

	s.logger.Info(context.Background(), "Ledger tools registered", map[string]interface{}{
		"budget_id": cfg.BudgetID,
	})
	return true
}

type ledgerTools struct {
	svc      LedgerService
	currency string
}

func (h *ledgerTools) getTransactions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	filters := &ledgerapp.TransactionFilters{}
	var err error
	if filters.SearchText, err = optionalString(args, "searchText"); err != nil {
		return errorResult(err.Error()), nil
	}
	if filters.AccountID, err = optionalString(args, "accountId"); err != nil {
		return errorResult(err.Error()), nil
	}
	if filters.CategoryID, err = optionalString(args, "categoryId"); err != nil {
		return errorResult(err.Error()), nil
	}
	if filters.SinceDate, err = optionalString(args, "sinceDate"); err != nil {
		return errorResult(err.Error()), nil
	}
	if filters.Limit, err = limitArg(args, 10); err != nil {
		return errorResult(err.Error()), nil
	}

	env, err := h.svc.ListTransactions(ctx, filters)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	return envelopeResult(
		"Transactions Retrieved",
		env,
		fmt.Sprintf("**Summary:** Retrieved %d of %d transactions", env.ReturnedCount, env.TotalCount),
	), nil
}

func (h *ledgerTools) createTransaction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	in := &ledgerapp.CreateTransactionRequest{}
	var err error
	if in.AccountID, err = requiredString(args, "account_id"); err != nil {
		return errorResult(err.Error()), nil
	}
	if in.Amount, err = requiredNumber(args, "amount"); err != nil {
		return errorResult(err.Error()), nil
	}
	for key, dst := range map[string]*string{
		"payee_name":  &in.PayeeName,
		"category_id": &in.CategoryID,
		"memo":        &in.Memo,
		"date":        &in.Date,
		"cleared":     &in.Cleared,
		"flag_color":  &in.FlagColor,
	} {
		if *dst, err = optionalString(args, key); err != nil {
			return errorResult(err.Error()), nil
		}
	}
	if in.Approved, err = optionalBoolPtr(args, "approved"); err != nil {
		return errorResult(err.Error()), nil
	}

	env, err := h.svc.CreateTransaction(ctx, in)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	summary := "**Created by:** " + callerLabel(ctx)
	if h.currency != "" {
		amount := ledger.FormatCurrency(ledger.Milliunits(env.Transaction.AmountMilliunits), h.currency)
		summary = "**Amount:** " + amount + "\n\n" + summary
	}
	return envelopeResult("Transaction Created Successfully", env, summary), nil
}

func (h *ledgerTools) getCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	includeHidden, err := optionalBool(args, "includeHidden", false)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	includeDetails, err := optionalBool(args, "includeDetails", false)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	env, err := h.svc.ListCategories(ctx, includeHidden, includeDetails)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	return envelopeResult(
		"Budget Categories",
		env,
		fmt.Sprintf("**Total category groups:** %d", len(env.CategoryGroups)),
	), nil
}

func (h *ledgerTools) getAccounts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	includeDeleted, err := optionalBool(req.GetArguments(), "includeDeleted", false)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	env, err := h.svc.ListAccounts(ctx, includeDeleted)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	return envelopeResult(
		"Budget Accounts",
		env,
		fmt.Sprintf("**Total accounts:** %d", len(env.Accounts)),
	), nil
}

func (h *ledgerTools) getBudgetSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	env, err := h.svc.GetBudgetSummary(ctx)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return envelopeResult("Budget Summary", env, ""), nil
}

func (h *ledgerTools) getPayees(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	searchText, err := optionalString(req.GetArguments(), "searchText")
	if err != nil {
		return errorResult(err.Error()), nil
	}

	env, err := h.svc.ListPayees(ctx, searchText)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	return envelopeResult(
		"Budget Payees",
		env,
		fmt.Sprintf("**Total payees:** %d", len(env.Payees)),
	), nil
}

// callerLabel 呼び出し元の表示名
func callerLabel(ctx context.Context) string {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return "unknown"
	}
	if id.DisplayName == "" {
		return id.Login
	}
	return fmt.Sprintf("%s (%s)", id.Login, id.DisplayName)
}
