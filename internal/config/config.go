package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds lane configuration loaded from the environment.
type Config struct {
	AppEnv         string
	CatalogBaseURL string
	TaxCode        int
	DefaultTaxRate float64

	HTTPTimeout     time.Duration
	HTTPMaxAttempts int
	HTTPBaseBackoff time.Duration

	OpsAddr   string
	LogFormat string
	LogLevel  string

	TracingEnabled  bool
	OTLPEndpoint    string
	TracingSampling float64

	// catalogd settings
	Port               string
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:         valueOrDefault(k.String("APP_ENV"), "development"),
		CatalogBaseURL: valueOrDefault(k.String("CATALOG_BASE_URL"), "http://127.0.0.1:8000"),
		TaxCode:        parseInt(k.String("TAX_CODE"), 10),
		DefaultTaxRate: parseFloat(k.String("DEFAULT_TAX_RATE"), 0.10),

		HTTPTimeout:     parseDuration(k.String("HTTP_TIMEOUT"), "5s"),
		HTTPMaxAttempts: parseInt(k.String("HTTP_MAX_ATTEMPTS"), 3),
		HTTPBaseBackoff: parseDuration(k.String("HTTP_BASE_BACKOFF"), "200ms"),

		OpsAddr:   valueOrDefault(k.String("OPS_ADDR"), ":9090"),
		LogFormat: valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:  valueOrDefault(k.String("LOG_LEVEL"), "info"),

		TracingEnabled:  parseBool(k.String("TRACING_ENABLED")),
		OTLPEndpoint:    strings.TrimSpace(k.String("OTLP_ENDPOINT")),
		TracingSampling: parseFloat(k.String("TRACING_SAMPLING_RATIO"), 1.0),

		Port:               valueOrDefault(k.String("PORT"), "8000"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
	}

	if strings.TrimSpace(cfg.CatalogBaseURL) == "" {
		return nil, errors.New("CATALOG_BASE_URL is required")
	}
	if cfg.DefaultTaxRate < 0 || cfg.DefaultTaxRate >= 1 {
		return nil, fmt.Errorf("DEFAULT_TAX_RATE must be in [0,1), got %v", cfg.DefaultTaxRate)
	}

	return cfg, nil
}

// HTTPAddr returns the address the catalogd HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
