package returns

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/medishop/medishop/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the returns module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs returns handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers returns routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/returns/supplier", h.returnToSupplier)
	r.Post("/returns/customer", h.returnFromCustomer)
}

type supplierReturnRequest struct {
	PurchaseID string         `json:"purchase_id" validate:"required"`
	Quantities map[string]int `json:"quantities" validate:"required,min=1"`
	Reason     string         `json:"reason"`
}

func (h *Handler) returnToSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	bill, err := h.service.ReturnToSupplier(r.Context(), SupplierReturnInput{
		PurchaseID: req.PurchaseID,
		Quantities: req.Quantities,
		Reason:     req.Reason,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}

type customerReturnRequest struct {
	CustomerID string                      `json:"customer_id"`
	Lines      []customerReturnLineRequest `json:"lines" validate:"required,min=1,dive"`
	Reason     string                      `json:"reason"`
}

type customerReturnLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

func (h *Handler) returnFromCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CustomerReturnInput{CustomerID: req.CustomerID, Reason: req.Reason}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, CustomerReturnLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	bill, err := h.service.ReturnFromCustomer(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}
