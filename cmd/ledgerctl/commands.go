package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	authapp "ynab-mcp-server/internal/application/auth"
)

var ledgerCommands = []subcommands.Command{
	&transactionsCmd{},
	&createCmd{},
	&accountsCmd{},
	&categoriesCmd{},
	&budgetCmd{},
	&payeesCmd{},
}

func (o *output) setFlags(f *flag.FlagSet) {
	f.BoolVar(&o.json, "json", false, "Print only the JSON result, without the Markdown wrapper.")
	f.IntVar(&o.width, "width", 100, "Word wrap width for rendered output.")
}

// runTool レジストリを組み立ててツールを実行し結果を表示する
func runTool(ctx context.Context, out *output, name string, args map[string]interface{}) subcommands.ExitStatus {
	rt, err := newRuntime()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	res, err := rt.call(ctx, name, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := out.render(os.Stdout, res); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// setStrings 空でない値だけ引数に追加する
func setStrings(args map[string]interface{}, values map[string]string) {
	for k, v := range values {
		if v != "" {
			args[k] = v
		}
	}
}

type transactionsCmd struct {
	output
	search   string
	account  string
	category string
	since    string
	limit    int
}

func (*transactionsCmd) Name() string     { return "transactions" }
func (*transactionsCmd) Synopsis() string { return "list recent transactions with resolved account and category names" }
func (*transactionsCmd) Usage() string {
	return `ledgerctl transactions [-search <text>] [-account <id>] [-category <id>] [-since <YYYY-MM-DD>] [-limit <n>] [-json]
`
}

func (c *transactionsCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.search, "search", "", "Case-insensitive text to match in payee name or memo.")
	f.StringVar(&c.account, "account", "", "Account id filter.")
	f.StringVar(&c.category, "category", "", "Category id filter.")
	f.StringVar(&c.since, "since", "", "Only transactions on or after this date (defaults to 30 days ago).")
	f.IntVar(&c.limit, "limit", 10, "Maximum number of transactions (1-100).")
}

func (c *transactionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := map[string]interface{}{"limit": c.limit}
	setStrings(args, map[string]string{
		"searchText": c.search,
		"accountId":  c.account,
		"categoryId": c.category,
		"sinceDate":  c.since,
	})
	return runTool(ctx, &c.output, "getTransactions", args)
}

type createCmd struct {
	output
	account  string
	amount   float64
	payee    string
	category string
	memo     string
	date     string
	cleared  string
	approved bool
	flag     string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "create a transaction" }
func (*createCmd) Usage() string {
	return `ledgerctl create -account <id> -amount <units> [-payee <name>] [-category <id>] [-memo <text>]
                 [-date <YYYY-MM-DD>] [-cleared cleared|uncleared|reconciled] [-approved] [-flag <color>] [-json]

  The amount is given in currency units; negative values are outflows.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.account, "account", "", "Account id (required).")
	f.Float64Var(&c.amount, "amount", 0, "Amount in currency units (required).")
	f.StringVar(&c.payee, "payee", "", "Payee name.")
	f.StringVar(&c.category, "category", "", "Category id.")
	f.StringVar(&c.memo, "memo", "", "Memo.")
	f.StringVar(&c.date, "date", "", "Transaction date (defaults to today).")
	f.StringVar(&c.cleared, "cleared", "", "Cleared status.")
	f.BoolVar(&c.approved, "approved", false, "Mark the transaction as approved.")
	f.StringVar(&c.flag, "flag", "", "Flag color.")
}

func (c *createCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := map[string]interface{}{
		"account_id": c.account,
		"amount":     c.amount,
	}
	setStrings(args, map[string]string{
		"payee_name":  c.payee,
		"category_id": c.category,
		"memo":        c.memo,
		"date":        c.date,
		"cleared":     c.cleared,
		"flag_color":  c.flag,
	})
	// 指定時のみ送る
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == "approved" {
			args["approved"] = c.approved
		}
	})
	return runTool(ctx, &c.output, "createTransaction", args)
}

type accountsCmd struct {
	output
	deleted bool
}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list budget accounts" }
func (*accountsCmd) Usage() string {
	return `ledgerctl accounts [-deleted] [-json]
`
}

func (c *accountsCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.BoolVar(&c.deleted, "deleted", false, "Include deleted accounts.")
}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runTool(ctx, &c.output, "getAccounts", map[string]interface{}{"includeDeleted": c.deleted})
}

type categoriesCmd struct {
	output
	hidden  bool
	details bool
}

func (*categoriesCmd) Name() string     { return "categories" }
func (*categoriesCmd) Synopsis() string { return "list category groups and their categories" }
func (*categoriesCmd) Usage() string {
	return `ledgerctl categories [-hidden] [-details] [-json]
`
}

func (c *categoriesCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.BoolVar(&c.hidden, "hidden", false, "Include hidden categories.")
	f.BoolVar(&c.details, "details", false, "Include budgeted, activity and goal details.")
}

func (c *categoriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runTool(ctx, &c.output, "getCategories", map[string]interface{}{
		"includeHidden":  c.hidden,
		"includeDetails": c.details,
	})
}

type budgetCmd struct {
	output
}

func (*budgetCmd) Name() string     { return "budget" }
func (*budgetCmd) Synopsis() string { return "show the budget summary" }
func (*budgetCmd) Usage() string {
	return `ledgerctl budget [-json]
`
}

func (c *budgetCmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *budgetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return runTool(ctx, &c.output, "getBudgetSummary", nil)
}

type payeesCmd struct {
	output
	search string
}

func (*payeesCmd) Name() string     { return "payees" }
func (*payeesCmd) Synopsis() string { return "list payees" }
func (*payeesCmd) Usage() string {
	return `ledgerctl payees [-search <text>] [-json]
`
}

func (c *payeesCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.search, "search", "", "Case-insensitive text to match in payee name.")
}

func (c *payeesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := map[string]interface{}{}
	setStrings(args, map[string]string{"searchText": c.search})
	return runTool(ctx, &c.output, "getPayees", args)
}

type convertCmd struct {
	output
	amount   int64
	currency string
}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "convert a milliunit amount into the configured target currency" }
func (*convertCmd) Usage() string {
	return `ledgerctl convert -amount <milliunits> -currency <code> [-json]
`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.Int64Var(&c.amount, "amount", 0, "Amount in milliunits (e.g. 10500 for 10.50).")
	f.StringVar(&c.currency, "currency", "", "3-letter source currency code.")
}

func (c *convertCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := newRuntime()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	res, err := rt.call(ctx, "convertTo"+rt.cfg.Conversion.TargetCurrency, map[string]interface{}{
		"amount":   c.amount,
		"currency": c.currency,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := c.render(os.Stdout, res); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type tokenCmd struct {
	login       string
	name        string
	email       string
	accessToken string
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a delegated bearer token signed with OAUTH_JWT_SECRET" }
func (*tokenCmd) Usage() string {
	return `ledgerctl token -login <login> [-name <display name>] [-email <email>] [-access-token <token>]
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.login, "login", "", "Caller login (required).")
	f.StringVar(&c.name, "name", "", "Display name.")
	f.StringVar(&c.email, "email", "", "Email address.")
	f.StringVar(&c.accessToken, "access-token", "", "Upstream access token carried in the token.")
}

func (c *tokenCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rt, err := newRuntime()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	res, err := rt.auth.IssueDelegatedToken(ctx, &authapp.IssueTokenRequest{
		Login:       c.login,
		DisplayName: c.name,
		Email:       c.email,
		AccessToken: c.accessToken,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Println(res.Token)
	return subcommands.ExitSuccess
}
