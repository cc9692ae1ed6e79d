// Package catalog talks to the remote catalog service: product lookup, the
// tax schedule, and purchase submission. It is stateless request/response;
// every failure is mapped to a *RemoteError carrying the server-provided
// detail when one is available.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/toko-pos/internal/obs"
	"github.com/noah-isme/toko-pos/internal/resilience"
)

const genericNetworkError = "catalog service unreachable"

// RemoteError is a failure reported by (or while reaching) the catalog
// service. Detail is the server's human-readable message when the response
// body carried one.
type RemoteError struct {
	StatusCode int
	Detail     string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Detail) != "" {
		return e.Detail
	}
	return genericNetworkError
}

// ClientConfig carries the settings needed to construct a Client.
type ClientConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	Logger      zerolog.Logger
}

// Client issues catalog requests through a retrying, breaker-guarded HTTP
// client with OpenTelemetry transport instrumentation.
type Client struct {
	baseURL string
	http    resilience.HTTPClient
	logger  zerolog.Logger
}

// NewClient validates the base URL and builds the underlying HTTP stack.
func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("catalog: base url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("catalog: invalid base url %q", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: base,
		http: resilience.HTTPClient{
			Client: &http.Client{
				Timeout:   timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			},
			Breaker:     resilience.NewBreaker(5, 0.5, 15*time.Second).WithTarget("catalog").WithLogger(cfg.Logger),
			MaxAttempts: cfg.MaxAttempts,
			BaseBackoff: cfg.BaseBackoff,
			Jitter:      0.2,
		},
		logger: cfg.Logger,
	}, nil
}

type lookupRequest struct {
	Code string `json:"code"`
}

type lookupResponse struct {
	Status  string  `json:"status"`
	Message Product `json:"message"`
}

// Lookup resolves a product by its code. A missing product or unreachable
// service is returned as *RemoteError.
func (c *Client) Lookup(ctx context.Context, code string) (Product, error) {
	start := time.Now()
	defer c.observe("search_product", start)

	var out lookupResponse
	if err := c.postJSON(ctx, "/search_product/", lookupRequest{Code: code}, &out); err != nil {
		return Product{}, err
	}
	if out.Status != "success" {
		return Product{}, &RemoteError{Detail: "unexpected catalog response"}
	}
	return out.Message, nil
}

// TaxSchedule fetches the list of tax entries.
func (c *Client) TaxSchedule(ctx context.Context) ([]TaxEntry, error) {
	start := time.Now()
	defer c.observe("tax", start)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/tax/", nil)
	if err != nil {
		return nil, err
	}
	var entries []TaxEntry
	if err := c.do(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SubmitPurchase sends the purchase payload. Each submission carries a fresh
// idempotency key so a retried request is not double-booked server side.
func (c *Client) SubmitPurchase(ctx context.Context, purchase PurchaseRequest) error {
	start := time.Now()
	defer c.observe("purchase", start)

	body, err := json.Marshal(purchase)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/purchase/", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())
	return c.do(req, nil)
}

// Ping probes the service root. Used by the readiness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req.Context(), req)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", req.URL.String()).Msg("catalog request failed")
		return &RemoteError{Detail: genericNetworkError}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{StatusCode: resp.StatusCode, Detail: decodeDetail(resp)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RemoteError{StatusCode: resp.StatusCode, Detail: "malformed catalog response"}
	}
	return nil
}

func (c *Client) observe(endpoint string, start time.Time) {
	if obs.CatalogRequestDuration != nil {
		obs.CatalogRequestDuration.WithLabelValues(endpoint).Observe(obs.DurationMillis(time.Since(start)))
	}
}

// decodeDetail extracts the server's error detail from the response body.
func decodeDetail(resp *http.Response) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ""
	}
	return strings.TrimSpace(body.Detail)
}
