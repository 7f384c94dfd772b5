package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medishop/medishop/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the reports module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs reports handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers reports routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/daily", h.daily)
	r.Get("/reports/top-products", h.topProducts)
	r.Get("/reports/stock", h.stock)
}

func (h *Handler) parseDay(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return time.Now().UTC(), true
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}

func (h *Handler) daily(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDay(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	summary, err := h.service.Daily(r.Context(), day)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) topProducts(w http.ResponseWriter, r *http.Request) {
	day, ok := h.parseDay(r)
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "limit must be an integer")
			return
		}
		limit = parsed
	}
	products, err := h.service.TopProducts(r.Context(), day, limit)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) stock(w http.ResponseWriter, r *http.Request) {
	lines, err := h.service.Stock(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, lines)
}
