package shop

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Subtotal is the sum of price x quantity over the lines. The storefront has
// no tax, shipping or discount, so it is also the order total.
func Subtotal(lines []CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return sum
}

// ItemCount is the number of units across the lines (the header badge).
func ItemCount(lines []CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

// FormatBRL renders "R$ 1234,50": two decimals, comma separator, no grouping.
func FormatBRL(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}
