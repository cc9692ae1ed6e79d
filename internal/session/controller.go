// Package session owns the checkout state machine: the current lookup code,
// the pending lookup result, the cart, the tax rate, and the scan-device
// lifecycle. Every state transition goes through the Controller; collaborator
// failures are converted into its result/flag vocabulary and never escape raw.
package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-pos/internal/cart"
	"github.com/noah-isme/toko-pos/internal/catalog"
	"github.com/noah-isme/toko-pos/internal/common"
	"github.com/noah-isme/toko-pos/internal/events"
	"github.com/noah-isme/toko-pos/internal/obs"
	"github.com/noah-isme/toko-pos/internal/pricing"
	"github.com/noah-isme/toko-pos/internal/scan"
)

// CatalogClient is the slice of the catalog service the session consumes.
type CatalogClient interface {
	Lookup(ctx context.Context, code string) (catalog.Product, error)
	TaxSchedule(ctx context.Context) ([]catalog.TaxEntry, error)
	SubmitPurchase(ctx context.Context, purchase catalog.PurchaseRequest) error
}

// LookupState enumerates the lifecycle of the current lookup.
type LookupState int

const (
	// LookupEmpty means no lookup has been issued for the current code.
	LookupEmpty LookupState = iota
	// LookupPending means a lookup is in flight.
	LookupPending
	// LookupFound means the current code resolved to a product.
	LookupFound
	// LookupFailed means the current code did not resolve.
	LookupFailed
)

// LookupResult is the outcome keyed to the current lookup code. Product is
// meaningful only in state LookupFound, Message only in LookupFailed.
type LookupResult struct {
	State   LookupState
	Product catalog.Product
	Message string
}

// Snapshot is a consistent copy of the session state for display.
type Snapshot struct {
	LookupCode      string
	Lookup          LookupResult
	Cart            cart.Cart
	TaxRate         float64
	TaxFetchFailed  bool
	ScanActive      bool
	TotalWithTax    pricing.Money
	TotalWithoutTax pricing.Money
}

// Config wires a Controller.
type Config struct {
	Catalog        CatalogClient
	Scanner        *scan.Adapter
	Bus            *events.Bus
	Logger         zerolog.Logger
	TaxCode        int
	DefaultTaxRate float64
}

// Controller is the checkout session state machine. All fields are guarded
// by mu; asynchronous work re-enters under the lock and checks the lookup
// sequence number before applying its outcome.
type Controller struct {
	mu sync.Mutex

	catalog CatalogClient
	scanner *scan.Adapter
	bus     *events.Bus
	logger  zerolog.Logger

	taxCode        int
	taxRate        float64
	taxRequested   bool
	taxFetchFailed bool

	lookupCode string
	lookupSeq  uint64
	lookup     LookupResult

	lines cart.Cart

	scanActive bool
	scanHandle *scan.Handle
}

// New constructs a Controller with the default tax rate in effect until the
// schedule is fetched.
func New(cfg Config) (*Controller, error) {
	if cfg.Catalog == nil {
		return nil, common.NewAppError(common.CodeInternal, "catalog client is required", http.StatusInternalServerError, nil)
	}
	taxCode := cfg.TaxCode
	if taxCode == 0 {
		taxCode = 10
	}
	// Zero is a valid configured rate; only values outside [0,1) fall back.
	rate := cfg.DefaultTaxRate
	if rate < 0 || rate >= 1 {
		rate = 0.10
	}
	return &Controller{
		catalog: cfg.Catalog,
		scanner: cfg.Scanner,
		bus:     cfg.Bus,
		logger:  cfg.Logger,
		taxCode: taxCode,
		taxRate: rate,
	}, nil
}

// Start fetches the tax schedule once, asynchronously. A failed fetch (or a
// schedule without the configured code) retains the default rate and raises
// the TaxFetchFailed flag; it never blocks any other operation.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.taxRequested {
		c.mu.Unlock()
		return
	}
	c.taxRequested = true
	c.mu.Unlock()

	go func() {
		entries, err := c.catalog.TaxSchedule(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			c.taxFetchFailed = true
			c.logger.Warn().Err(err).Msg("tax schedule fetch failed, keeping default rate")
			return
		}
		for _, entry := range entries {
			if entry.Code == c.taxCode && entry.Percent >= 0 && entry.Percent < 1 {
				c.taxRate = entry.Percent
				c.logger.Info().Float64("rate", entry.Percent).Msg("tax rate loaded")
				return
			}
		}
		c.taxFetchFailed = true
		c.logger.Warn().Int("tax_code", c.taxCode).Msg("tax schedule has no standard rate entry")
	}()
}

// SetLookupCode replaces the current code. Any new code, typed or scanned,
// deactivates the scanner. A non-empty code starts an asynchronous lookup;
// an empty code clears the result without issuing a request.
func (c *Controller) SetLookupCode(ctx context.Context, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLookupCodeLocked(ctx, code)
}

func (c *Controller) setLookupCodeLocked(ctx context.Context, code string) {
	c.releaseScanLocked()
	c.lookupCode = code
	c.lookupSeq++
	if code == "" {
		c.lookup = LookupResult{State: LookupEmpty}
		return
	}
	c.lookup = LookupResult{State: LookupPending}
	seq := c.lookupSeq
	go c.resolveLookup(ctx, seq, code)
}

// resolveLookup applies a lookup outcome only while its originating code is
// still current; superseded outcomes are discarded, never applied.
func (c *Controller) resolveLookup(ctx context.Context, seq uint64, code string) {
	product, err := c.catalog.Lookup(ctx, code)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.lookupSeq {
		countLookup("superseded")
		return
	}
	if err != nil {
		c.lookup = LookupResult{State: LookupFailed, Message: err.Error()}
		countLookup("failed")
		c.logger.Debug().Str("code", code).Str("detail", err.Error()).Msg("lookup failed")
		return
	}
	c.lookup = LookupResult{State: LookupFound, Product: product}
	countLookup("found")
}

// AddToCart merges the resolved product into the cart: one more unit on an
// existing line, or a new line appended at the end. A no-op unless the
// current lookup resolved successfully.
func (c *Controller) AddToCart(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lookup.State != LookupFound {
		return
	}
	c.lines = cart.Merge(c.lines, c.lookup.Product)
	if obs.CartItemsAdded != nil {
		obs.CartItemsAdded.Inc()
	}
	c.emit(ctx, events.TopicCartItemAdded, map[string]any{
		"code": c.lookup.Product.Code,
		"name": c.lookup.Product.Name,
	})
}

// SetLineQuantity sets the quantity of the line at index to qty exactly;
// zero removes the line. Out-of-range indices panic: after any mutation the
// caller must re-resolve indices against a fresh snapshot.
func (c *Controller) SetLineQuantity(index, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = cart.SetQuantity(c.lines, index, qty)
}

// Purchase submits the cart with its totals. On success the whole session
// resets: cart, lookup code and lookup result are cleared. On failure the
// state is left untouched so the operator can retry. An empty cart is
// forwarded as-is.
func (c *Controller) Purchase(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]catalog.PurchaseItem, 0, len(c.lines))
	for _, line := range c.lines {
		items = append(items, catalog.PurchaseItem{
			Code:      line.Product.Code,
			Name:      line.Product.Name,
			UnitPrice: line.Product.UnitPrice,
			Quantity:  line.Qty,
		})
	}
	purchase := catalog.PurchaseRequest{
		Items:           items,
		TotalWithTax:    cart.Total(c.lines, c.taxRate, true),
		TotalWithoutTax: cart.Total(c.lines, c.taxRate, false),
	}
	if err := c.catalog.SubmitPurchase(ctx, purchase); err != nil {
		countPurchase("error")
		c.logger.Warn().Err(err).Msg("purchase rejected")
		return common.NewAppError(common.CodePurchase, err.Error(), http.StatusBadGateway, err)
	}
	countPurchase("success")

	c.lines = nil
	c.setLookupCodeLocked(ctx, "")
	c.emit(ctx, events.TopicPurchaseCompleted, map[string]any{
		"items":        len(items),
		"totalWithTax": purchase.TotalWithTax,
	})
	return nil
}

// ToggleScan flips scan activation. Deactivation releases the camera stream
// synchronously so the device indicator turns off immediately. Activation
// failures (permission denied, no device) leave the session inactive and are
// returned to the caller; no automatic retry.
func (c *Controller) ToggleScan(ctx context.Context) error {
	c.mu.Lock()
	if c.scanActive {
		c.releaseScanLocked()
		c.mu.Unlock()
		return nil
	}
	if c.scanner == nil {
		c.mu.Unlock()
		return common.NewAppError(common.CodeCamera, "no scan device configured", http.StatusServiceUnavailable, nil)
	}
	c.scanActive = true
	c.mu.Unlock()

	handle, err := c.scanner.Activate(ctx, func(text string) {
		c.handleDecoded(ctx, text)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.scanActive = false
		return common.NewAppError(common.CodeCamera, err.Error(), http.StatusServiceUnavailable, err)
	}
	if !c.scanActive {
		// Deactivated while acquiring: a decode or toggle won the race.
		handle.Release()
		return nil
	}
	c.scanHandle = handle
	return nil
}

// handleDecoded routes a decoded payload through the same path as typed
// input. The code change releases the device, so the first decode stops any
// further callbacks.
func (c *Controller) handleDecoded(ctx context.Context, text string) {
	c.mu.Lock()
	c.setLookupCodeLocked(ctx, text)
	c.mu.Unlock()

	if obs.ScanDecodeTotal != nil {
		obs.ScanDecodeTotal.Inc()
	}
	c.emit(ctx, events.TopicProductScanned, map[string]any{"code": text})
}

// Snapshot returns a consistent copy of the session state. Totals are
// recomputed from the current cart and tax rate on every call.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make(cart.Cart, len(c.lines))
	copy(lines, c.lines)
	return Snapshot{
		LookupCode:      c.lookupCode,
		Lookup:          c.lookup,
		Cart:            lines,
		TaxRate:         c.taxRate,
		TaxFetchFailed:  c.taxFetchFailed,
		ScanActive:      c.scanActive,
		TotalWithTax:    cart.Total(c.lines, c.taxRate, true),
		TotalWithoutTax: cart.Total(c.lines, c.taxRate, false),
	}
}

// Close releases the scan device if it is still held.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseScanLocked()
}

func (c *Controller) releaseScanLocked() {
	if c.scanHandle != nil {
		c.scanHandle.Release()
		c.scanHandle = nil
	}
	c.scanActive = false
}

func (c *Controller) emit(ctx context.Context, topic string, payload any) {
	if c.bus == nil {
		return
	}
	if _, err := c.bus.Emit(ctx, topic, payload); err != nil {
		c.logger.Warn().Err(err).Str("topic", topic).Msg("event emission failed")
	}
}

func countLookup(result string) {
	if obs.LookupTotal != nil {
		obs.LookupTotal.WithLabelValues(result).Inc()
	}
}

func countPurchase(result string) {
	if obs.PurchaseTotal != nil {
		obs.PurchaseTotal.WithLabelValues(result).Inc()
	}
}
