// Package format renders currency amounts and rates for display.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency renders an amount in dollars with thousands separators, e.g. "-$1,234.56".
func Currency(amount decimal.Decimal) string {
	return signed(amount, "$")
}

// NumericCurrency renders an amount with separators but no symbol, e.g. "-1,234.56".
func NumericCurrency(amount decimal.Decimal) string {
	return signed(amount, "")
}

// Percent renders a percentage with the given number of decimals, e.g. "5.2500%".
func Percent(rate decimal.Decimal, places int32) string {
	return rate.StringFixed(places) + "%"
}

// signed prefixes the grouped absolute amount with the sign and symbol.
// Amounts that round to zero cents never carry a minus sign.
func signed(amount decimal.Decimal, symbol string) string {
	cents := amount.Round(2)
	digits := group(cents.Abs().StringFixed(2))
	if cents.IsNegative() {
		return "-" + symbol + digits
	}
	return symbol + digits
}

// group inserts a comma every three digits of the integer part.
func group(fixed string) string {
	whole, frac, _ := strings.Cut(fixed, ".")
	if len(whole) <= 3 {
		return fixed
	}

	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
