package dashboard

import (
	"fmt"
	"strings"
)

// FormatMoney formats a dollar amount as $X,XXX.XX.
func FormatMoney(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	var b strings.Builder
	start := len(whole) % 3
	if start > 0 {
		b.WriteString(whole[:start])
	}
	for i := start; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}

	if neg {
		return "-$" + b.String() + frac
	}
	return "$" + b.String() + frac
}

// FormatPercent formats a fractional value as a signed percentage, "+X.XX%".
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}

// FormatShares formats a share count with comma separators.
func FormatShares(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
