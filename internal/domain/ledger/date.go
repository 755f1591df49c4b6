package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateLayout 台帳のカレンダー日付形式
const DateLayout = "2006-01-02"

var canonicalDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// 受け付ける日付形式
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// FormatDate 日付を台帳形式に正規化する。空の場合はnowの日付を返す
func FormatDate(value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now.Format(DateLayout), nil
	}
	if canonicalDate.MatchString(value) {
		return value, nil
	}
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, value, now.Location())
		if err == nil {
			if layout == time.RFC3339 {
				t = t.In(now.Location())
			}
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDate, value)
}
