package pricing

import "math"

// Money represents a monetary value stored in minor units.
type Money = int64

// Item describes a line item used for total calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Subtotal returns the exact integer sum of qty × unit price over all items.
// Lines with a non-positive quantity contribute nothing.
func Subtotal(items []Item) Money {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 {
			continue
		}
		subtotal += Money(it.Qty) * it.UnitPrice
	}
	return subtotal
}

// WithTax applies the fractional tax rate to the subtotal and rounds half up
// on the final amount. The tax-exclusive figure is never rounded.
func WithTax(subtotal Money, rate float64) Money {
	return RoundHalfUp(float64(subtotal) * (1 + rate))
}

// RoundHalfUp rounds the amount to the nearest integer with ties rounding up.
func RoundHalfUp(amount float64) Money {
	return Money(math.Floor(amount + 0.5))
}
