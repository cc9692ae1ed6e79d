package cart_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pos/internal/cart"
	"github.com/noah-isme/toko-pos/internal/catalog"
)

var (
	tea    = catalog.Product{Code: "4901234567894", Name: "Oolong Tea 500ml", UnitPrice: 150}
	coffee = catalog.Product{Code: "4900000000001", Name: "Drip Coffee", UnitPrice: 320}
)

func TestMergeKeepsOneLinePerCode(t *testing.T) {
	var c cart.Cart
	for i := 0; i < 4; i++ {
		c = cart.Merge(c, tea)
	}
	require.Len(t, c, 1)
	require.Equal(t, 4, c[0].Qty)

	c = cart.Merge(c, coffee)
	require.Len(t, c, 2)
	require.Equal(t, coffee.Code, c[1].Product.Code, "new products append at the end")
	require.Equal(t, 1, c[1].Qty)
}

func TestMergeDoesNotMutateInput(t *testing.T) {
	c := cart.Cart{{Product: tea, Qty: 1}}
	merged := cart.Merge(c, tea)
	require.Equal(t, 1, c[0].Qty)
	require.Equal(t, 2, merged[0].Qty)
}

func TestSetQuantityAbsolute(t *testing.T) {
	c := cart.Cart{{Product: tea, Qty: 2}, {Product: coffee, Qty: 1}}
	c = cart.SetQuantity(c, 0, 7)
	require.Equal(t, 7, c[0].Qty)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	c := cart.Cart{{Product: tea, Qty: 2}, {Product: coffee, Qty: 1}}
	c = cart.SetQuantity(c, 0, 0)
	require.Len(t, c, 1)
	require.Equal(t, coffee.Code, c[0].Product.Code, "sequence compacts after removal")
	for _, line := range c {
		require.Positive(t, line.Qty, "no zero-quantity line may remain")
	}
}

func TestSetQuantityOutOfRangePanics(t *testing.T) {
	c := cart.Cart{{Product: tea, Qty: 1}}
	require.Panics(t, func() { cart.SetQuantity(c, 1, 2) })
	require.Panics(t, func() { cart.SetQuantity(c, -1, 2) })
}

func TestTotals(t *testing.T) {
	c := cart.Cart{{Product: catalog.Product{Code: "X", Name: "X", UnitPrice: 100}, Qty: 2}}
	require.EqualValues(t, 200, cart.Total(c, 0.08, false))
	require.EqualValues(t, 216, cart.Total(c, 0.08, true))
	require.EqualValues(t, 200, cart.Subtotal(c))
}

func TestTotalsRecomputedFromInputs(t *testing.T) {
	c := cart.Cart{
		{Product: tea, Qty: 3},
		{Product: coffee, Qty: 2},
	}
	require.EqualValues(t, 3*150+2*320, cart.Total(c, 0.10, false))

	c = cart.SetQuantity(c, 1, 0)
	require.EqualValues(t, 450, cart.Total(c, 0.10, false))
	require.EqualValues(t, 495, cart.Total(c, 0.10, true))
}
