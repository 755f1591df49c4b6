package ledger

import (
	"fmt"
)

// FlagColor トランザクションのフラグ色
type FlagColor string

const (
	FlagColorRed    FlagColor = "red"
	FlagColorOrange FlagColor = "orange"
	FlagColorYellow FlagColor = "yellow"
	FlagColorGreen  FlagColor = "green"
	FlagColorBlue   FlagColor = "blue"
	FlagColorPurple FlagColor = "purple"
)

var flagColors = []FlagColor{
	FlagColorRed,
	FlagColorOrange,
	FlagColorYellow,
	FlagColorGreen,
	FlagColorBlue,
	FlagColorPurple,
}

// NewFlagColor 新しいFlagColorを作成
func NewFlagColor(s string) (FlagColor, error) {
	for _, fc := range flagColors {
		if FlagColor(s) == fc {
			return fc, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidFlagColor, s)
}

// String 文字列表現を返す
func (fc FlagColor) String() string {
	return string(fc)
}

// FlagColorValues スキーマ用の列挙値
func FlagColorValues() []string {
	values := make([]string, len(flagColors))
	for i, fc := range flagColors {
		values[i] = fc.String()
	}
	return values
}
