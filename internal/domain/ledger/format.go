package ledger

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// FormatCurrency ミリ単位の金額を通貨記号付きの表示文字列にする
func FormatCurrency(m Milliunits, isoCode string) string {
	code := strings.ToUpper(isoCode)
	cur := money.GetCurrency(code)
	if cur == nil {
		return m.Decimal().StringFixed(2) + " " + code
	}
	// 通貨の小数桁に合わせて最小単位へ丸める
	minor := m.Decimal().Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}
