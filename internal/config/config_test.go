package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-pos/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"CATALOG_BASE_URL": "",
		"TAX_CODE":         "",
		"DEFAULT_TAX_RATE": "",
		"HTTP_TIMEOUT":     "",
	})
	require.NoError(t, err)
	require.Equal(t, "http://127.0.0.1:8000", cfg.CatalogBaseURL)
	require.Equal(t, 10, cfg.TaxCode)
	require.Equal(t, 0.10, cfg.DefaultTaxRate)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 3, cfg.HTTPMaxAttempts)
	require.Equal(t, ":9090", cfg.OpsAddr)
	require.Equal(t, ":8000", cfg.HTTPAddr())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"CATALOG_BASE_URL":     "http://catalog.internal:8080",
		"TAX_CODE":             "8",
		"DEFAULT_TAX_RATE":     "0.05",
		"HTTP_TIMEOUT":         "2s",
		"PORT":                 "9000",
		"CORS_ALLOWED_ORIGINS": "http://localhost:3000, http://pos.local",
	})
	require.NoError(t, err)
	require.Equal(t, "http://catalog.internal:8080", cfg.CatalogBaseURL)
	require.Equal(t, 8, cfg.TaxCode)
	require.Equal(t, 0.05, cfg.DefaultTaxRate)
	require.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, []string{"http://localhost:3000", "http://pos.local"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsOutOfRangeTaxRate(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"DEFAULT_TAX_RATE": "1.5",
	})
	require.Error(t, err)
}
