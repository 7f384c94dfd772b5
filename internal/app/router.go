package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medishop/medishop/internal/auth"
	"github.com/medishop/medishop/internal/billing"
	"github.com/medishop/medishop/internal/catalog"
	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/observability"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/purchasing"
	"github.com/medishop/medishop/internal/reports"
	"github.com/medishop/medishop/internal/returns"
	"github.com/medishop/medishop/internal/snapshot"
	"github.com/medishop/medishop/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Pool              *pgxpool.Pool
	AuthHandler       *auth.Handler
	CatalogHandler    *catalog.Handler
	PartyHandler      *party.Handler
	LedgerHandler     *ledger.Handler
	PurchasingHandler *purchasing.Handler
	BillingHandler    *billing.Handler
	ReturnsHandler    *returns.Handler
	ReportsHandler    *reports.Handler
	SnapshotHandler   *snapshot.Handler
	JobsHandler       *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with the default stack.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := http.StatusOK
		body := `{"status":"ok"}`
		if params.Pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), params.Config.AppReadTimeout)
			defer cancel()
			if err := params.Pool.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body = `{"status":"degraded"}`
			}
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		params.AuthHandler.MountRoutes(api)
		params.CatalogHandler.MountRoutes(api)
		params.PartyHandler.MountRoutes(api)
		params.LedgerHandler.MountRoutes(api)
		params.PurchasingHandler.MountRoutes(api)
		params.BillingHandler.MountRoutes(api)
		params.ReturnsHandler.MountRoutes(api)
		params.ReportsHandler.MountRoutes(api)
		params.SnapshotHandler.MountRoutes(api)
		if params.JobsHandler != nil {
			params.JobsHandler.MountRoutes(api)
		}
	})

	return r
}
