package snapshot

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medishop/medishop/internal/platform/httpx"
)

// one full database fits comfortably; the cap guards runaway uploads
const maxImportBytes = 32 << 20

// Handler wires the snapshot admin endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs snapshot handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers snapshot routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/admin/snapshot", h.export)
	r.Post("/admin/snapshot", h.doImport)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportJSON(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="medishop-snapshot.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) doImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "could not read body")
		return
	}
	if err := h.service.ImportJSON(r.Context(), data); err != nil {
		h.logger.Error("snapshot import failed", slog.String("error", err.Error()))
		httpx.Problem(w, http.StatusBadRequest, "Import Failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
