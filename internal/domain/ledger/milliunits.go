package ledger

import (
	"github.com/shopspring/decimal"
)

// MilliunitsPerUnit 表示単位1あたりのミリ単位数
const MilliunitsPerUnit = 1000

// Milliunits 台帳の正規の金額表現（表示単位の1/1000）
type Milliunits int64

// Display 表示単位に変換する（丸めない）
func (m Milliunits) Display() float64 {
	return decimal.New(int64(m), -3).InexactFloat64()
}

// Decimal 表示単位の厳密な10進値を返す
func (m Milliunits) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -3)
}

// Int64 整数値を返す
func (m Milliunits) Int64() int64 {
	return int64(m)
}

// ToMilliunits 表示単位をミリ単位に変換する（最も近い整数に丸める）
func ToMilliunits(display float64) Milliunits {
	return Milliunits(decimal.NewFromFloat(display).Shift(3).Round(0).IntPart())
}

// DisplayPtr nilを保ったまま表示単位に変換する
func DisplayPtr(m *Milliunits) *float64 {
	if m == nil {
		return nil
	}
	v := m.Display()
	return &v
}
