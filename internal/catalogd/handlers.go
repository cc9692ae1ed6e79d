package catalogd

import (
	"encoding/json"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-pos/internal/catalog"
	"github.com/noah-isme/toko-pos/internal/common"
)

// Handler serves the catalog wire API over a Store.
type Handler struct {
	Store    *Store
	Logger   zerolog.Logger
	Validate *validator.Validate
}

// NewHandler wires a handler with a fresh validator instance.
func NewHandler(store *Store, logger zerolog.Logger) *Handler {
	return &Handler{
		Store:    store,
		Logger:   logger,
		Validate: validator.New(),
	}
}

type searchInput struct {
	Code string `json:"code" validate:"required"`
}

type purchaseInput struct {
	Items           []purchaseItemInput `json:"items" validate:"dive"`
	TotalWithTax    int64               `json:"totalWithTax" validate:"gte=0"`
	TotalWithoutTax int64               `json:"totalWithoutTax" validate:"gte=0"`
}

type purchaseItemInput struct {
	Code      string `json:"PRD_CD" validate:"required"`
	Name      string `json:"PRD_NAME"`
	UnitPrice int64  `json:"PRD_PRICE" validate:"gte=0"`
	Quantity  int    `json:"quantity" validate:"gte=1"`
}

// Root answers the liveness probe the lane client pings on startup.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, map[string]string{"Hello": "World"})
}

// SearchProduct resolves a product by scanned or typed code.
func (h *Handler) SearchProduct(w http.ResponseWriter, r *http.Request) {
	var payload searchInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONDetail(w, http.StatusBadRequest, "code is required")
		return
	}
	product, ok := h.Store.Lookup(payload.Code)
	if !ok {
		common.JSONDetail(w, http.StatusNotFound, "Product not found")
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": product,
	})
}

// Tax returns the full tax schedule.
func (h *Handler) Tax(w http.ResponseWriter, r *http.Request) {
	common.JSON(w, http.StatusOK, h.Store.TaxSchedule())
}

// Purchase records a completed trade.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var payload purchaseInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONDetail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Validate.Struct(payload); err != nil {
		common.JSONDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	req := catalog.PurchaseRequest{
		TotalWithTax:    payload.TotalWithTax,
		TotalWithoutTax: payload.TotalWithoutTax,
	}
	for _, item := range payload.Items {
		req.Items = append(req.Items, catalog.PurchaseItem{
			Code:      item.Code,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	trade, err := h.Store.RecordPurchase(req)
	if err != nil {
		common.JSONDetail(w, http.StatusNotFound, err.Error())
		return
	}
	h.Logger.Info().
		Int("trade_id", trade.ID).
		Int("items", len(trade.Items)).
		Int64("total_with_tax", trade.TotalWithTax).
		Msg("purchase recorded")
	common.JSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Purchase completed successfully",
	})
}
