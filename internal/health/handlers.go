package health

import (
	"context"
	"net/http"
	"time"

	"github.com/noah-isme/toko-pos/internal/common"
)

// Checker represents dependencies that can be probed for readiness.
type Checker interface {
	PingCatalog(ctx context.Context) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker        Checker
	CatalogTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness by probing the catalog service.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeInternal, "health checker not configured", nil)
		return
	}
	timeout := h.CatalogTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	if err := h.Checker.PingCatalog(ctx); err != nil {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeInternal, "catalog service unreachable", map[string]string{"error": err.Error()})
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
