// Package cart holds the in-memory purchase list: an ordered sequence of
// product lines with quantity arithmetic and total computation. All
// operations are pure and return a fresh slice, leaving the input intact.
package cart

import (
	"fmt"

	"github.com/noah-isme/toko-pos/internal/catalog"
	"github.com/noah-isme/toko-pos/internal/pricing"
)

// Line is one cart entry. Identity is the product code: the cart never holds
// two lines for the same code, and a line's quantity is always at least 1.
type Line struct {
	Product catalog.Product `json:"product"`
	Qty     int             `json:"qty"`
}

// Cart is the ordered purchase list. Insertion order is preserved for display.
type Cart []Line

// Merge adds one unit of the product. An existing line for the same code has
// its quantity incremented; otherwise a new line is appended at the end.
func Merge(c Cart, p catalog.Product) Cart {
	out := make(Cart, len(c), len(c)+1)
	copy(out, c)
	for i := range out {
		if out[i].Product.Code == p.Code {
			out[i].Qty++
			return out
		}
	}
	return append(out, Line{Product: p, Qty: 1})
}

// SetQuantity sets the quantity of the line at index to qty exactly. A
// quantity of zero removes the line and compacts the sequence. An
// out-of-range index is a programmer error and panics.
func SetQuantity(c Cart, index, qty int) Cart {
	if index < 0 || index >= len(c) {
		panic(fmt.Sprintf("cart: line index %d out of range [0,%d)", index, len(c)))
	}
	if qty < 0 {
		panic(fmt.Sprintf("cart: negative quantity %d", qty))
	}
	out := make(Cart, len(c))
	copy(out, c)
	if qty == 0 {
		return append(out[:index], out[index+1:]...)
	}
	out[index].Qty = qty
	return out
}

// Subtotal returns the exact tax-exclusive sum over all lines.
func Subtotal(c Cart) pricing.Money {
	return pricing.Subtotal(items(c))
}

// Total computes the cart total. Rounding applies only to the tax-inclusive
// figure; the exclusive total is an exact integer sum.
func Total(c Cart, rate float64, includeTax bool) pricing.Money {
	subtotal := Subtotal(c)
	if !includeTax {
		return subtotal
	}
	return pricing.WithTax(subtotal, rate)
}

func items(c Cart) []pricing.Item {
	out := make([]pricing.Item, 0, len(c))
	for _, line := range c {
		out = append(out, pricing.Item{Qty: line.Qty, UnitPrice: line.Product.UnitPrice})
	}
	return out
}
