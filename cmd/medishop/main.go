package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/medishop/medishop/internal/app"
	"github.com/medishop/medishop/internal/auth"
	"github.com/medishop/medishop/internal/billing"
	"github.com/medishop/medishop/internal/catalog"
	"github.com/medishop/medishop/internal/ledger"
	"github.com/medishop/medishop/internal/notify"
	"github.com/medishop/medishop/internal/observability"
	"github.com/medishop/medishop/internal/party"
	"github.com/medishop/medishop/internal/platform/cache"
	"github.com/medishop/medishop/internal/platform/db"
	"github.com/medishop/medishop/internal/purchasing"
	"github.com/medishop/medishop/internal/reports"
	"github.com/medishop/medishop/internal/returns"
	"github.com/medishop/medishop/internal/shared"
	"github.com/medishop/medishop/internal/snapshot"
	"github.com/medishop/medishop/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var lowStockCache *cache.JSONCache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, low stock cache disabled", slog.Any("error", err))
	} else {
		lowStockCache = cache.NewJSONCache(redisClient, cfg.LowStockTTL)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	metrics := observability.NewMetrics()
	sink := notify.NewSlogSink(logger)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	catalogService := catalog.NewService(catalog.NewRepository(pool), lowStockCache)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	partyService := party.NewService(party.NewRepository(pool))
	partyHandler := party.NewHandler(logger, partyService)

	ledgerService := ledger.NewService(ledger.NewRepository(pool))
	ledgerHandler := ledger.NewHandler(logger, ledgerService)

	purchasingService := purchasing.NewService(purchasing.NewRepository(pool), partyService)
	purchasingHandler := purchasing.NewHandler(logger, purchasingService)

	billingService := billing.NewService(billing.NewRepository(pool), idempotencyStore, sink, cfg.Policies()).
		WithMetrics(metrics)
	billingHandler := billing.NewHandler(logger, billingService)

	returnsService := returns.NewService(returns.NewRepository(pool), partyService, sink)
	returnsHandler := returns.NewHandler(logger, returnsService)

	reportsService := reports.NewService(reports.NewRepository(pool))
	reportsHandler := reports.NewHandler(logger, reportsService)

	snapshotService := snapshot.NewService(snapshot.NewRepository(pool))
	snapshotHandler := snapshot.NewHandler(logger, snapshotService)

	authService := auth.NewService(auth.NewRepository(pool))
	authHandler := auth.NewHandler(logger, authService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              pool,
		AuthHandler:       authHandler,
		CatalogHandler:    catalogHandler,
		PartyHandler:      partyHandler,
		LedgerHandler:     ledgerHandler,
		PurchasingHandler: purchasingHandler,
		BillingHandler:    billingHandler,
		ReturnsHandler:    returnsHandler,
		ReportsHandler:    reportsHandler,
		SnapshotHandler:   snapshotHandler,
		JobsHandler:       jobsHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
