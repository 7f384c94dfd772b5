package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/medishop/medishop/internal/app"
	"github.com/medishop/medishop/internal/catalog"
	"github.com/medishop/medishop/internal/notify"
	"github.com/medishop/medishop/internal/platform/cache"
	"github.com/medishop/medishop/internal/platform/db"
	"github.com/medishop/medishop/internal/shared"
	"github.com/medishop/medishop/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	tasks := &jobs.Tasks{
		Logger:        logger,
		Catalog:       catalog.NewService(catalog.NewRepository(pool), lowStockCache),
		Idempotency:   shared.NewIdempotencyStore(pool),
		Sink:          notify.NewSlogSink(logger),
		ExpiryDays:    cfg.ExpiryScanDays,
		IdemRetention: cfg.IdemRetention,
	}

	cron, err := jobs.DefaultCron(cfg.ExpiryScanDays)
	if err != nil {
		logger.Error("build cron schedule", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Tasks:     tasks,
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
