package reports

import (
	"context"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	SalesOn(ctx context.Context, day time.Time) (DailySummary, error)
	TopProductsOn(ctx context.Context, day time.Time, limit int) ([]ProductSales, error)
	StockLines(ctx context.Context) ([]StockLine, error)
}

// Service assembles read-only reports.
type Service struct {
	repo    RepositoryPort
	printer *message.Printer
}

// NewService builds Service. Amounts are grouped with Indian digit
// separators, matching the printed bill format.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, printer: message.NewPrinter(language.MustParse("en-IN"))}
}

// Daily returns the sales summary for one day.
func (s *Service) Daily(ctx context.Context, day time.Time) (DailySummary, error) {
	summary, err := s.repo.SalesOn(ctx, day)
	if err != nil {
		return DailySummary{}, err
	}
	summary.NetSalesPretty = s.printer.Sprintf("₹%.2f", summary.NetSales)
	return summary, nil
}

// TopProducts returns the day's best sellers.
func (s *Service) TopProducts(ctx context.Context, day time.Time, limit int) ([]ProductSales, error) {
	return s.repo.TopProductsOn(ctx, day, limit)
}

// Stock returns the reconciliation view over every product. A line is
// consistent when ledger delta equals current minus initial stock.
func (s *Service) Stock(ctx context.Context) ([]StockLine, error) {
	lines, err := s.repo.StockLines(ctx)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].Consistent = lines[i].LedgerDelta == lines[i].CurrentStock-lines[i].InitialStock
	}
	return lines, nil
}
