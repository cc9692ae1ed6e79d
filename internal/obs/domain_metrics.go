package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// LookupTotal counts product lookups by outcome (found, failed, superseded).
	LookupTotal *prometheus.CounterVec
	// PurchaseTotal counts purchase submissions by outcome.
	PurchaseTotal *prometheus.CounterVec
	// ScanDecodeTotal counts decoded scan results routed into the session.
	ScanDecodeTotal prometheus.Counter
	// CartItemsAdded counts items merged into the cart.
	CartItemsAdded prometheus.Counter
	// CatalogRequestDuration records latency of catalog service calls in milliseconds.
	CatalogRequestDuration *prometheus.HistogramVec
)

// MustRegisterDomainMetrics initialises and registers lane-domain Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		LookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_total",
			Help:      "Count of product lookup outcomes.",
		}, []string{"result"})
		PurchaseTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purchase_total",
			Help:      "Count of purchase submission outcomes.",
		}, []string{"result"})
		ScanDecodeTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_decode_total",
			Help:      "Count of barcode decodes delivered to the session.",
		})
		CartItemsAdded = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_added_total",
			Help:      "Count of items merged into the cart.",
		})
		CatalogRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_request_duration_ms",
			Help:      "Latency distribution of catalog service calls in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}, []string{"endpoint"})

		for _, c := range []prometheus.Collector{LookupTotal, PurchaseTotal, ScanDecodeTotal, CartItemsAdded, CatalogRequestDuration} {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
					continue
				}
				panic(fmt.Errorf("register domain metric: %w", err))
			}
		}
	})
}
