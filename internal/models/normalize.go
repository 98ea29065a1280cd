package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// NormalizeMerchant derives the comparison form of a merchant string: trim,
// case-fold, collapse internal whitespace, strip leading and trailing
// punctuation. The result is deterministic and used only for matching,
// never for display.
func NormalizeMerchant(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.TrimSpace(s)
}

// currencyRunes are the symbols stripped from amount cells before parsing.
const currencyRunes = "$€£¥"

// ParseAmount parses an amount cell into a decimal, handling currency
// symbols, thousands separators, the configured decimal separator, and
// accounting-style parentheses (which yield a negative value).
func ParseAmount(cell string, decimalSeparator rune) (decimal.Decimal, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount cell is empty")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case strings.ContainsRune(currencyRunes, r):
			// drop currency symbols wherever they appear
		case r == ' ':
		case decimalSeparator == ',' && r == '.':
			// thousands separator in comma-decimal locales
		case decimalSeparator == ',' && r == ',':
			b.WriteRune('.')
		case decimalSeparator != ',' && r == ',':
			// thousands separator in dot-decimal locales
		default:
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount %q contains no numeric value", cell)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", cell, err)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// clockLayouts are the accepted clock-time encodings, tried in order.
var clockLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04:05 PM",
	"3:04 PM",
	"3:04PM",
}

// ParseClockTime parses a time-of-day string into an offset from midnight.
func ParseClockTime(cell string) (time.Duration, error) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, fmt.Errorf("time cell is empty")
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("unable to parse time of day %q", cell)
}

// FormatClockTime renders an offset from midnight as HH:MM.
func FormatClockTime(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}
