package mcpserver

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"ynab-mcp-server/internal/application/conversion"
)

// Converter 換算ツールが利用するアプリケーションサービス
type Converter interface {
	TargetCurrency() string
	ConvertToTarget(ctx context.Context, milliunits int64, source string) (*conversion.ConversionResult, error)
}

// RegisterConversionTools 通貨換算ツールを登録する
func (s *ToolServer) RegisterConversionTools(svc Converter) {
	target := svc.TargetCurrency()
	h := &conversionTools{svc: svc}

	s.addTool(mcp.NewTool("convertTo"+target,
		mcp.WithDescription(fmt.Sprintf("Convert an amount from any currency (except %s) into %s", target, target)),
		mcp.WithNumber("amount", mcp.Required(), mcp.Description("Amount in milliunits (e.g. 10500 for 10.50)")),
		mcp.WithString("currency", mcp.Required(), mcp.Description("3-letter source currency code (e.g. USD)")),
	), h.convert)
}

type conversionTools struct {
	svc Converter
}

func (h *conversionTools) convert(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	raw, ok := args["amount"].(float64)
	if !ok || raw != math.Trunc(raw) || math.Abs(raw) > 1<<53 {
		return errorResult("`amount` must be an integer number of milliunits (e.g. 10500)."), nil
	}
	currency, err := requiredString(args, "currency")
	if err != nil {
		return errorResult(err.Error()), nil
	}

	res, err := h.svc.ConvertToTarget(ctx, int64(raw), currency)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	summary := fmt.Sprintf("%d %s milliunits (%s %s) → %s %s (%d %s milliunits)\n\nRate used: 1 %s = %s %s",
		res.SourceMilliunits, res.SourceCurrency, res.SourceUnits, res.SourceCurrency,
		strconv.FormatFloat(res.ConvertedUnits, 'f', 2, 64), res.TargetCurrency,
		res.ConvertedMilliunits, res.TargetCurrency,
		res.SourceCurrency, res.Rate, res.TargetCurrency,
	)
	return envelopeResult("Conversion Result", res, summary), nil
}
