package shop

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func line(price string, qty int) CartLine {
	return CartLine{
		CartItem: CartItem{Quantity: qty},
		Product:  Product{Price: decimal.RequireFromString(price)},
	}
}

func TestSubtotalSumsPriceTimesQuantity(t *testing.T) {
	lines := []CartLine{line("10.00", 2), line("5.50", 3), line("0.99", 1)}

	got := Subtotal(lines)

	assert.True(t, decimal.RequireFromString("37.49").Equal(got), got.String())
	assert.Equal(t, 6, ItemCount(lines))
}

func TestSubtotalEmptyCart(t *testing.T) {
	assert.True(t, Subtotal(nil).IsZero())
	assert.Equal(t, 0, ItemCount(nil))
}

func TestFormatBRL(t *testing.T) {
	cases := map[string]string{
		"20":      "R$ 20,00",
		"0":       "R$ 0,00",
		"1234.5":  "R$ 1234,50",
		"9.999":   "R$ 10,00",
		"0.1":     "R$ 0,10",
		"199.90":  "R$ 199,90",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatBRL(decimal.RequireFromString(in)), in)
	}
}
