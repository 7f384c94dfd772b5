package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	summary DailySummary
	top     []ProductSales
	lines   []StockLine
}

func (r *memoryRepo) SalesOn(ctx context.Context, day time.Time) (DailySummary, error) {
	s := r.summary
	s.Date = day
	return s, nil
}

func (r *memoryRepo) TopProductsOn(ctx context.Context, day time.Time, limit int) ([]ProductSales, error) {
	return r.top, nil
}

func (r *memoryRepo) StockLines(ctx context.Context) ([]StockLine, error) {
	return r.lines, nil
}

func TestDailyFormatsNetSales(t *testing.T) {
	repo := &memoryRepo{summary: DailySummary{BillCount: 3, NetSales: 123456.5}}
	svc := NewService(repo)

	summary, err := svc.Daily(context.Background(), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 3, summary.BillCount)
	// Indian grouping splits lakhs: 1,23,456.50.
	require.Equal(t, "₹1,23,456.50", summary.NetSalesPretty)
}

func TestStockMarksInconsistentLines(t *testing.T) {
	repo := &memoryRepo{lines: []StockLine{
		{ProductID: "p1", CurrentStock: 12, InitialStock: 10, LedgerDelta: 2},
		{ProductID: "p2", CurrentStock: 12, InitialStock: 10, LedgerDelta: 5},
	}}
	svc := NewService(repo)

	lines, err := svc.Stock(context.Background())
	require.NoError(t, err)
	require.True(t, lines[0].Consistent)
	require.False(t, lines[1].Consistent)
}
