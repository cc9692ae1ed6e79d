package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-pos/internal/catalog"
	"github.com/noah-isme/toko-pos/internal/common"
	"github.com/noah-isme/toko-pos/internal/config"
	"github.com/noah-isme/toko-pos/internal/events"
	"github.com/noah-isme/toko-pos/internal/health"
	"github.com/noah-isme/toko-pos/internal/obs"
	"github.com/noah-isme/toko-pos/internal/scan"
	"github.com/noah-isme/toko-pos/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics("pos", nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "pos-lane",
			Endpoint:      cfg.OTLPEndpoint,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	client, err := catalog.NewClient(catalog.ClientConfig{
		BaseURL:     cfg.CatalogBaseURL,
		Timeout:     cfg.HTTPTimeout,
		MaxAttempts: cfg.HTTPMaxAttempts,
		BaseBackoff: cfg.HTTPBaseBackoff,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build catalog client")
	}

	device := &scan.SimDevice{}
	adapter := &scan.Adapter{Camera: device, Decoder: device, Logger: logger}

	bus := &events.Bus{Notifiers: []events.Notifier{events.LoggerNotifier{Logger: logger}}}

	ctrl, err := session.New(session.Config{
		Catalog:        client,
		Scanner:        adapter,
		Bus:            bus,
		Logger:         logger,
		TaxCode:        cfg.TaxCode,
		DefaultTaxRate: cfg.DefaultTaxRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("build session controller")
	}
	defer ctrl.Close()
	ctrl.Start(ctx)

	opsSrv := startOpsServer(cfg, client, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = opsSrv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("catalog", cfg.CatalogBaseURL).Msg("lane ready")
	runConsole(ctx, ctrl, device)
}

// startOpsServer exposes health probes and Prometheus metrics on a side
// listener, separate from anything the operator interacts with.
func startOpsServer(cfg *config.Config, client *catalog.Client, logger zerolog.Logger) *http.Server {
	hh := health.Handler{Checker: catalogChecker{client: client}, CatalogTimeout: cfg.HTTPTimeout}
	r := chi.NewRouter()
	r.Get("/healthz", hh.Live)
	r.Get("/readyz", hh.Ready)
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.OpsAddr, Handler: r}
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("ops listener starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("ops listener exited unexpectedly")
		}
	}()
	return srv
}

type catalogChecker struct {
	client *catalog.Client
}

func (c catalogChecker) PingCatalog(ctx context.Context) error {
	if c.client == nil {
		return errors.New("catalog client not configured")
	}
	return c.client.Ping(ctx)
}

// runConsole drives the checkout session from stdin. A bare line is treated
// as a product code; everything else is a command.
func runConsole(ctx context.Context, ctrl *session.Controller, device *scan.SimDevice) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	fmt.Println("commands: <code> | add | qty <line> <n> | buy | scan | inject <code> | list | quit")
	printSnapshot(ctrl.Snapshot())

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !dispatch(ctx, ctrl, device, strings.TrimSpace(line)) {
				return
			}
		}
	}
}

func dispatch(ctx context.Context, ctrl *session.Controller, device *scan.SimDevice, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		printSnapshot(ctrl.Snapshot())
		return true
	}
	switch fields[0] {
	case "quit", "exit":
		return false
	case "list":
		printSnapshot(ctrl.Snapshot())
	case "add":
		ctrl.AddToCart(ctx)
		printSnapshot(ctrl.Snapshot())
	case "qty":
		if len(fields) != 3 {
			fmt.Println("usage: qty <line> <n>")
			return true
		}
		index := common.AtoiDefault(fields[1], -1)
		qty := common.AtoiDefault(fields[2], -1)
		snap := ctrl.Snapshot()
		if index < 0 || index >= len(snap.Cart) || qty < 0 {
			fmt.Println("line or quantity out of range")
			return true
		}
		ctrl.SetLineQuantity(index, qty)
		printSnapshot(ctrl.Snapshot())
	case "buy":
		if err := ctrl.Purchase(ctx); err != nil {
			fmt.Printf("purchase failed: %v\n", err)
			return true
		}
		fmt.Println("purchase completed")
		printSnapshot(ctrl.Snapshot())
	case "scan":
		if err := ctrl.ToggleScan(ctx); err != nil {
			fmt.Printf("scanner: %v\n", err)
			return true
		}
		printSnapshot(ctrl.Snapshot())
	case "inject":
		if len(fields) != 2 {
			fmt.Println("usage: inject <code>")
			return true
		}
		if !device.Live() {
			fmt.Println("scanner is not active")
			return true
		}
		device.Inject(fields[1])
	case "clear":
		ctrl.SetLookupCode(ctx, "")
		printSnapshot(ctrl.Snapshot())
	default:
		ctrl.SetLookupCode(ctx, fields[0])
		printSnapshot(awaitLookup(ctrl.Snapshot, 300*time.Millisecond))
	}
	return true
}

// awaitLookup polls until the lookup settles or patience runs out, so the
// console shows the resolved product inline on the common fast path and a
// truthful "looking up" line on a slow one.
func awaitLookup(snapshot func() session.Snapshot, patience time.Duration) session.Snapshot {
	deadline := time.Now().Add(patience)
	for {
		snap := snapshot()
		if snap.Lookup.State != session.LookupPending || !time.Now().Before(deadline) {
			return snap
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func printSnapshot(snap session.Snapshot) {
	switch snap.Lookup.State {
	case session.LookupPending:
		fmt.Printf("code %s: looking up...\n", snap.LookupCode)
	case session.LookupFound:
		fmt.Printf("code %s: %s  %d\n", snap.LookupCode, snap.Lookup.Product.Name, snap.Lookup.Product.UnitPrice)
	case session.LookupFailed:
		fmt.Printf("code %s: %s\n", snap.LookupCode, snap.Lookup.Message)
	}
	if snap.TaxFetchFailed {
		fmt.Println("warning: tax schedule unavailable, using default rate")
	}
	if snap.ScanActive {
		fmt.Println("scanner active")
	}
	if len(snap.Cart) == 0 {
		fmt.Println("cart: empty")
		return
	}
	for i, line := range snap.Cart {
		fmt.Printf("  [%d] %s x%d  %d\n", i, line.Product.Name, line.Qty, line.Product.UnitPrice*int64(line.Qty))
	}
	fmt.Printf("total: %d (tax included: %d)\n", snap.TotalWithoutTax, snap.TotalWithTax)
}
