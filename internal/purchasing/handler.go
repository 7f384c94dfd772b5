package purchasing

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/medishop/medishop/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the purchasing module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs purchasing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchasing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/purchases", h.listPurchases)
	r.Post("/purchases", h.recordPurchase)
	r.Get("/purchases/{id}", h.getPurchase)
}

type recordPurchaseRequest struct {
	SupplierID string               `json:"supplier_id" validate:"required"`
	InvoiceNo  string               `json:"invoice_no" validate:"required"`
	Date       string               `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Items      []recordPurchaseLine `json:"items" validate:"required,min=1,dive"`
}

type recordPurchaseLine struct {
	ProductID     string  `json:"product_id" validate:"required"`
	Quantity      int     `json:"quantity" validate:"gt=0"`
	PurchasePrice float64 `json:"purchase_price" validate:"gt=0"`
	BatchNo       string  `json:"batch_no"`
	ExpiryDate    string  `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
}

func (h *Handler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	var req recordPurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := RecordInput{SupplierID: req.SupplierID, InvoiceNo: req.InvoiceNo}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
			return
		}
		input.Date = date
	}
	for _, line := range req.Items {
		item := RecordItemInput{
			ProductID:     line.ProductID,
			Quantity:      line.Quantity,
			PurchasePrice: line.PurchasePrice,
			BatchNo:       line.BatchNo,
		}
		if line.ExpiryDate != "" {
			expiry, err := time.Parse("2006-01-02", line.ExpiryDate)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expiry_date must be YYYY-MM-DD")
				return
			}
			item.ExpiryDate = &expiry
		}
		input.Items = append(input.Items, item)
	}
	entry, err := h.service.Record(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	entry, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be an integer")
			return
		}
		limit = parsed
	}
	entries, err := h.service.List(r.Context(), limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entries)
}
