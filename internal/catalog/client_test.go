package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pos/internal/catalog"
)

func newClient(t *testing.T, baseURL string) *catalog.Client {
	t.Helper()
	client, err := catalog.NewClient(catalog.ClientConfig{BaseURL: baseURL})
	require.NoError(t, err)
	return client
}

func TestNewClientRejectsBadBaseURL(t *testing.T) {
	_, err := catalog.NewClient(catalog.ClientConfig{})
	require.Error(t, err)
	_, err = catalog.NewClient(catalog.ClientConfig{BaseURL: "not-a-url"})
	require.Error(t, err)
}

func TestLookupSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search_product/", r.URL.Path)

		var body struct {
			Code string `json:"code"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "4901234567894", body.Code)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"message": map[string]any{
				"PRD_CD":    "4901234567894",
				"PRD_NAME":  "Oolong Tea 500ml",
				"PRD_PRICE": 150,
			},
		})
	}))
	defer srv.Close()

	product, err := newClient(t, srv.URL).Lookup(context.Background(), "4901234567894")
	require.NoError(t, err)
	require.Equal(t, catalog.Product{Code: "4901234567894", Name: "Oolong Tea 500ml", UnitPrice: 150}, product)
}

func TestLookupNotFoundCarriesDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Product not found"})
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).Lookup(context.Background(), "nope")
	var remote *catalog.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, http.StatusNotFound, remote.StatusCode)
	require.Equal(t, "Product not found", remote.Error())
}

func TestLookupUnreachableUsesGenericMessage(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:1")
	_, err := client.Lookup(context.Background(), "100")
	var remote *catalog.RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, "catalog service unreachable", remote.Error())
}

func TestTaxSchedule(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tax/", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"CODE": 10, "PERCENT": 0.08},
			{"CODE": 8, "PERCENT": 0.05},
		})
	}))
	defer srv.Close()

	entries, err := newClient(t, srv.URL).TaxSchedule(context.Background())
	require.NoError(t, err)
	require.Equal(t, []catalog.TaxEntry{{Code: 10, Percent: 0.08}, {Code: 8, Percent: 0.05}}, entries)
}

func TestSubmitPurchaseSendsIdempotencyKey(t *testing.T) {
	var seen catalog.PurchaseRequest
	var key string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/purchase/", r.URL.Path)
		key = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	defer srv.Close()

	purchase := catalog.PurchaseRequest{
		Items:           []catalog.PurchaseItem{{Code: "100", Name: "Plain Bread", UnitPrice: 100, Quantity: 2}},
		TotalWithTax:    216,
		TotalWithoutTax: 200,
	}
	require.NoError(t, newClient(t, srv.URL).SubmitPurchase(context.Background(), purchase))
	require.NotEmpty(t, key)
	require.Equal(t, purchase, seen)
}

func TestPingHitsRoot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]string{"Hello": "World"})
	}))
	defer srv.Close()

	require.NoError(t, newClient(t, srv.URL).Ping(context.Background()))
}
