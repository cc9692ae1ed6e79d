// Package catalogd implements the development catalog service the lane
// client talks to: product lookup, the tax schedule, and a trade ledger.
// Everything lives in memory; the wire contract matches the production
// catalog service exactly.
package catalogd

import (
	"fmt"
	"sync"
	"time"

	"github.com/noah-isme/toko-pos/internal/catalog"
)

// Trade is one recorded purchase.
type Trade struct {
	ID              int
	At              time.Time
	Items           []catalog.PurchaseItem
	TotalWithTax    int64
	TotalWithoutTax int64
}

// Store is the in-memory product, tax and trade state.
type Store struct {
	mu       sync.Mutex
	products map[string]catalog.Product
	taxes    []catalog.TaxEntry
	trades   []Trade
	now      func() time.Time
}

// NewStore builds a store over the provided tables.
func NewStore(products []catalog.Product, taxes []catalog.TaxEntry) *Store {
	indexed := make(map[string]catalog.Product, len(products))
	for _, p := range products {
		indexed[p.Code] = p
	}
	return &Store{
		products: indexed,
		taxes:    append([]catalog.TaxEntry(nil), taxes...),
		now:      time.Now,
	}
}

// SeedProducts returns the default development product table.
func SeedProducts() []catalog.Product {
	return []catalog.Product{
		{Code: "4901234567894", Name: "Oolong Tea 500ml", UnitPrice: 150},
		{Code: "4900000000001", Name: "Drip Coffee", UnitPrice: 320},
		{Code: "4900000000002", Name: "Rice Ball Salmon", UnitPrice: 140},
		{Code: "4900000000003", Name: "Chocolate Wafer", UnitPrice: 120},
		{Code: "100", Name: "Plain Bread", UnitPrice: 100},
	}
}

// SeedTaxes returns the default tax schedule; code 10 is the standard rate.
func SeedTaxes() []catalog.TaxEntry {
	return []catalog.TaxEntry{
		{Code: 10, Percent: 0.10},
		{Code: 8, Percent: 0.08},
	}
}

// Lookup resolves a product by code.
func (s *Store) Lookup(code string) (catalog.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[code]
	return p, ok
}

// TaxSchedule returns a copy of the tax table.
func (s *Store) TaxSchedule() []catalog.TaxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.TaxEntry(nil), s.taxes...)
}

// RecordPurchase validates every item against the product table and appends
// a trade. Unknown products reject the whole purchase; nothing is recorded.
func (s *Store) RecordPurchase(req catalog.PurchaseRequest) (Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range req.Items {
		if _, ok := s.products[item.Code]; !ok {
			return Trade{}, fmt.Errorf("Product with code %s not found", item.Code)
		}
	}
	trade := Trade{
		ID:              len(s.trades) + 1,
		At:              s.now(),
		Items:           append([]catalog.PurchaseItem(nil), req.Items...),
		TotalWithTax:    req.TotalWithTax,
		TotalWithoutTax: req.TotalWithoutTax,
	}
	s.trades = append(s.trades, trade)
	return trade, nil
}

// Trades returns a copy of the recorded trade ledger.
func (s *Store) Trades() []Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Trade(nil), s.trades...)
}
