package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medishop/medishop/internal/platform/cache"
	"github.com/medishop/medishop/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
	ListLowStock(ctx context.Context) ([]Product, error)
	ListExpiring(ctx context.Context, now, until time.Time) ([]Product, error)
}

const lowStockCacheKey = "catalog:low_stock"

// Service coordinates catalog operations.
type Service struct {
	repo  RepositoryPort
	cache *cache.JSONCache
	now   func() time.Time
}

// NewService builds Service. cache may be nil.
func NewService(repo RepositoryPort, c *cache.JSONCache) *Service {
	return &Service{repo: repo, cache: c, now: time.Now}
}

// Create validates and persists a new product.
func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	v := &shared.ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "required")
	}
	if input.SellingPrice <= 0 {
		v.Add("selling_price", "must be positive")
	}
	if input.PurchasePrice < 0 {
		v.Add("purchase_price", "must not be negative")
	}
	if input.MRP > 0 && input.SellingPrice > input.MRP {
		v.Add("selling_price", "must not exceed mrp")
	}
	if input.StockQuantity < 0 {
		v.Add("stock_quantity", "must not be negative")
	}
	if input.MinStockLevel < 0 {
		v.Add("min_stock_level", "must not be negative")
	}
	if err := v.ErrOrNil(); err != nil {
		return Product{}, err
	}

	p := Product{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(input.Name),
		Brand:         input.Brand,
		Category:      input.Category,
		Barcode:       input.Barcode,
		HSNCode:       input.HSNCode,
		BatchNo:       input.BatchNo,
		ExpiryDate:    input.ExpiryDate,
		MRP:           input.MRP,
		PurchasePrice: input.PurchasePrice,
		SellingPrice:  input.SellingPrice,
		StockQuantity: input.StockQuantity,
		MinStockLevel: input.MinStockLevel,
		AddedAt:       s.now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertProduct(ctx, p)
	})
	if err != nil {
		return Product{}, fmt.Errorf("catalog: create: %w", err)
	}
	s.cache.Invalidate(ctx, lowStockCacheKey)
	return p, nil
}

// Update applies a partial update. Stock quantity is deliberately absent from
// UpdateInput; stock only moves through billing, purchasing and returns.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (Product, error) {
	var updated Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		p, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			p.Name = strings.TrimSpace(*input.Name)
		}
		if input.Brand != nil {
			p.Brand = *input.Brand
		}
		if input.Category != nil {
			p.Category = *input.Category
		}
		if input.Barcode != nil {
			p.Barcode = *input.Barcode
		}
		if input.HSNCode != nil {
			p.HSNCode = *input.HSNCode
		}
		if input.BatchNo != nil {
			p.BatchNo = *input.BatchNo
		}
		if input.ExpiryDate != nil {
			p.ExpiryDate = input.ExpiryDate
		}
		if input.MRP != nil {
			p.MRP = *input.MRP
		}
		if input.PurchasePrice != nil {
			p.PurchasePrice = *input.PurchasePrice
		}
		if input.SellingPrice != nil {
			p.SellingPrice = *input.SellingPrice
		}
		if input.MinStockLevel != nil {
			p.MinStockLevel = *input.MinStockLevel
		}
		if p.Name == "" {
			return shared.NewValidationError("name", "required")
		}
		if p.SellingPrice <= 0 {
			return shared.NewValidationError("selling_price", "must be positive")
		}
		if p.MinStockLevel < 0 {
			return shared.NewValidationError("min_stock_level", "must not be negative")
		}
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	s.cache.Invalidate(ctx, lowStockCacheKey)
	return updated, nil
}

// Delete removes a product that no bill references.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetProductForUpdate(ctx, id); err != nil {
			return err
		}
		refs, err := tx.CountBillReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return ErrProductReferenced
		}
		return tx.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, lowStockCacheKey)
	return nil
}

// Get fetches one product.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns the full catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// ListLowStock returns products at or below their reorder threshold. The
// result is cached briefly; every stock-mutating path invalidates the key.
func (s *Service) ListLowStock(ctx context.Context) ([]Product, error) {
	var cached []Product
	if s.cache.Get(ctx, lowStockCacheKey, &cached) {
		return cached, nil
	}
	products, err := s.repo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, lowStockCacheKey, products)
	return products, nil
}

// ListExpiring returns products expiring within the given number of days.
func (s *Service) ListExpiring(ctx context.Context, withinDays int) ([]Product, error) {
	if withinDays <= 0 {
		return nil, shared.NewValidationError("within_days", "must be positive")
	}
	now := s.now().UTC()
	return s.repo.ListExpiring(ctx, now, now.AddDate(0, 0, withinDays))
}

// InvalidateLowStock drops the cached low-stock list. Called by the modules
// that mutate stock outside this service.
func (s *Service) InvalidateLowStock(ctx context.Context) {
	s.cache.Invalidate(ctx, lowStockCacheKey)
}
