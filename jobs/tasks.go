package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/medishop/medishop/internal/catalog"
	"github.com/medishop/medishop/internal/notify"
	"github.com/medishop/medishop/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan walks the catalog for products at or below their
	// minimum level.
	TaskLowStockScan = "catalog:low_stock_scan"
	// TaskExpiryScan walks the catalog for products expiring soon.
	TaskExpiryScan = "catalog:expiry_scan"
	// TaskIdempotencyCleanup removes stale idempotency keys.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"
)

// ExpiryScanPayload narrows the expiry scan window.
type ExpiryScanPayload struct {
	WithinDays int `json:"within_days"`
}

// NewLowStockScanTask constructs the low stock scan task.
func NewLowStockScanTask() *asynq.Task {
	return asynq.NewTask(TaskLowStockScan, nil)
}

// NewExpiryScanTask constructs the expiry scan task.
func NewExpiryScanTask(payload ExpiryScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpiryScan, data), nil
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskIdempotencyCleanup, nil)
}

// Tasks bundles the dependencies the background handlers need.
type Tasks struct {
	Logger        *slog.Logger
	Catalog       *catalog.Service
	Idempotency   *shared.IdempotencyStore
	Sink          notify.Sink
	ExpiryDays    int
	IdemRetention time.Duration
}

// HandleLowStockScan refreshes the cached low stock list and raises a
// warning per product below its minimum level.
func (t *Tasks) HandleLowStockScan(ctx context.Context, _ *asynq.Task) error {
	t.Catalog.InvalidateLowStock(ctx)
	products, err := t.Catalog.ListLowStock(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		t.Sink.Notify(ctx, notify.KindWarning, "Low stock",
			fmt.Sprintf("%s has %d left (minimum %d)", p.Name, p.StockQuantity, p.MinStockLevel))
	}
	t.Logger.Info("low stock scan done", slog.Int("flagged", len(products)))
	return nil
}

// HandleExpiryScan raises a warning per product expiring within the window.
func (t *Tasks) HandleExpiryScan(ctx context.Context, task *asynq.Task) error {
	days := t.ExpiryDays
	if len(task.Payload()) > 0 {
		var payload ExpiryScanPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.WithinDays > 0 {
			days = payload.WithinDays
		}
	}
	if days <= 0 {
		days = 30
	}
	products, err := t.Catalog.ListExpiring(ctx, days)
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.ExpiryDate == nil {
			continue
		}
		t.Sink.Notify(ctx, notify.KindWarning, "Expiry approaching",
			fmt.Sprintf("%s expires on %s", p.Name, p.ExpiryDate.Format("2006-01-02")))
	}
	t.Logger.Info("expiry scan done", slog.Int("flagged", len(products)), slog.Int("within_days", days))
	return nil
}

// HandleIdempotencyCleanup drops keys older than the retention window.
func (t *Tasks) HandleIdempotencyCleanup(ctx context.Context, _ *asynq.Task) error {
	retention := t.IdemRetention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return t.Idempotency.Cleanup(ctx, retention)
}
