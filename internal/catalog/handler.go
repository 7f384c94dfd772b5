package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/medishop/medishop/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the catalog module.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs catalog handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Get("/products/low-stock", h.listLowStock)
	r.Get("/products/expiring", h.listExpiring)
	r.Get("/products/{id}", h.getProduct)
	r.Patch("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
}

type createProductRequest struct {
	Name          string  `json:"name" validate:"required"`
	Brand         string  `json:"brand"`
	Category      string  `json:"category"`
	Barcode       string  `json:"barcode"`
	HSNCode       string  `json:"hsn_code"`
	BatchNo       string  `json:"batch_no"`
	ExpiryDate    string  `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	MRP           float64 `json:"mrp" validate:"gte=0"`
	PurchasePrice float64 `json:"purchase_price" validate:"gte=0"`
	SellingPrice  float64 `json:"selling_price" validate:"gt=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	MinStockLevel int     `json:"min_stock_level" validate:"gte=0"`
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	input := CreateInput{
		Name:          req.Name,
		Brand:         req.Brand,
		Category:      req.Category,
		Barcode:       req.Barcode,
		HSNCode:       req.HSNCode,
		BatchNo:       req.BatchNo,
		MRP:           req.MRP,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		StockQuantity: req.StockQuantity,
		MinStockLevel: req.MinStockLevel,
	}
	if req.ExpiryDate != "" {
		expiry, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expiry_date must be YYYY-MM-DD")
			return
		}
		input.ExpiryDate = &expiry
	}
	product, err := h.service.Create(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, product)
}

type updateProductRequest struct {
	Name          *string  `json:"name"`
	Brand         *string  `json:"brand"`
	Category      *string  `json:"category"`
	Barcode       *string  `json:"barcode"`
	HSNCode       *string  `json:"hsn_code"`
	BatchNo       *string  `json:"batch_no"`
	ExpiryDate    *string  `json:"expiry_date"`
	MRP           *float64 `json:"mrp"`
	PurchasePrice *float64 `json:"purchase_price"`
	SellingPrice  *float64 `json:"selling_price"`
	MinStockLevel *int     `json:"min_stock_level"`
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req updateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	input := UpdateInput{
		Name:          req.Name,
		Brand:         req.Brand,
		Category:      req.Category,
		Barcode:       req.Barcode,
		HSNCode:       req.HSNCode,
		BatchNo:       req.BatchNo,
		MRP:           req.MRP,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		MinStockLevel: req.MinStockLevel,
	}
	if req.ExpiryDate != nil {
		expiry, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "expiry_date must be YYYY-MM-DD")
			return
		}
		input.ExpiryDate = &expiry
	}
	product, err := h.service.Update(r.Context(), id, input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrProductReferenced) {
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
			return
		}
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListLowStock(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) listExpiring(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "days must be an integer")
			return
		}
		days = parsed
	}
	products, err := h.service.ListExpiring(r.Context(), days)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}
