package pricing_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pos/internal/pricing"
)

func TestSubtotalSkipsNonPositiveQuantities(t *testing.T) {
	items := []pricing.Item{
		{Qty: 2, UnitPrice: 100},
		{Qty: 0, UnitPrice: 999},
		{Qty: -1, UnitPrice: 50},
		{Qty: 3, UnitPrice: 120},
	}
	require.EqualValues(t, 560, pricing.Subtotal(items))
}

func TestWithTaxRoundsHalfUp(t *testing.T) {
	cases := []struct {
		name     string
		subtotal pricing.Money
		rate     float64
		want     pricing.Money
	}{
		{"standard eight percent", 200, 0.08, 216},
		{"default ten percent", 100, 0.10, 110},
		{"rounds down below half", 101, 0.004, 101},
		{"rounds up at half", 105, 0.10, 116}, // 115.5 -> 116
		{"zero rate", 250, 0, 250},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, pricing.WithTax(tc.subtotal, tc.rate))
		})
	}
}

func TestRoundHalfUp(t *testing.T) {
	require.EqualValues(t, 2, pricing.RoundHalfUp(1.5))
	require.EqualValues(t, 1, pricing.RoundHalfUp(1.49))
	require.EqualValues(t, 0, pricing.RoundHalfUp(0.4))
}
