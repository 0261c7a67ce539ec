// Amount parsing and formatting.
//
// Parsing accepts both dot (12.34) and comma (12,34) decimal
// separators and rounds half-up past the second decimal. Formatting
// follows the locale's grouping and decimal separators, two decimals
// always ("1.234,56" for Italian).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount string to a signed
// decimal. Zero is rejected: the entry form never produces it.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d = d.Round(2)
	if d.IsZero() {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders d with the locale's separators and exactly two
// decimals. The sign, when negative, precedes the digits.
func FormatAmount(d decimal.Decimal, locale Locale) string {
	fixed := d.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(locale.GroupSep)
		}
		b.WriteRune(digit)
	}
	b.WriteString(locale.DecimalSep)
	b.WriteString(fracPart)
	return b.String()
}
