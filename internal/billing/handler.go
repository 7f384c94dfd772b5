package billing

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/medishop/medishop/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the billing module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs billing handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers billing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/bills", h.listBills)
	r.Post("/bills", h.createBill)
	r.Get("/bills/{id}", h.getBill)
	r.Get("/bills/by-number/{no}", h.getBillByNumber)
	r.Post("/bills/{id}/returns", h.addReturn)
}

type createBillRequest struct {
	CustomerID  string              `json:"customer_id"`
	Items       []billLineRequest   `json:"items" validate:"required,min=1,dive"`
	Returns     []returnLineRequest `json:"returns" validate:"omitempty,dive"`
	DiscountPct float64             `json:"discount_pct" validate:"gte=0,lte=100"`
	GSTPct      float64             `json:"gst_pct" validate:"gte=0"`
	PaidAmount  float64             `json:"paid_amount" validate:"gte=0"`
	PaymentMode string              `json:"payment_mode" validate:"omitempty,oneof=cash card upi wallet"`
	StaffID     string              `json:"staff_id"`
	StaffName   string              `json:"staff_name"`
}

type billLineRequest struct {
	ProductID   string  `json:"product_id" validate:"required"`
	Quantity    int     `json:"quantity" validate:"gt=0"`
	DiscountPct float64 `json:"discount_pct" validate:"gte=0,lte=100"`
}

type returnLineRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

func (h *Handler) createBill(w http.ResponseWriter, r *http.Request) {
	var req createBillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateInput{
		CustomerID:  req.CustomerID,
		DiscountPct: req.DiscountPct,
		GSTPct:      req.GSTPct,
		PaidAmount:  req.PaidAmount,
		PaymentMode: PaymentMode(req.PaymentMode),
		StaffID:     req.StaffID,
		StaffName:   req.StaffName,
	}
	for _, line := range req.Items {
		input.Items = append(input.Items, CreateItemInput{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			DiscountPct: line.DiscountPct,
		})
	}
	for _, line := range req.Returns {
		input.Returns = append(input.Returns, CreateReturnInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	bill, err := h.service.Create(r.Context(), input, r.Header.Get("Idempotency-Key"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, bill)
}

type addReturnRequest struct {
	Lines []returnLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (h *Handler) addReturn(w http.ResponseWriter, r *http.Request) {
	var req addReturnRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := ReturnInput{}
	for _, line := range req.Lines {
		input.Lines = append(input.Lines, CreateReturnInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	bill, err := h.service.AddReturn(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	bill, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) getBillByNumber(w http.ResponseWriter, r *http.Request) {
	bill, err := h.service.GetByNumber(r.Context(), chi.URLParam(r, "no"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) listBills(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be an integer")
			return
		}
		limit = parsed
	}
	bills, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, bills)
}
