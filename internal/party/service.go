package party

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medishop/medishop/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetCustomer(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
}

// Service coordinates customer and supplier records.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// CreateCustomer registers a customer with a zeroed purchase total.
func (s *Service) CreateCustomer(ctx context.Context, input CustomerInput) (Customer, error) {
	v := &shared.ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		v.Add("phone", "required")
	}
	if err := v.ErrOrNil(); err != nil {
		return Customer{}, err
	}
	c := Customer{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Email:        input.Email,
		Address:      input.Address,
		RegisteredAt: s.now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertCustomer(ctx, c)
	})
	if err != nil {
		return Customer{}, fmt.Errorf("party: create customer: %w", err)
	}
	return c, nil
}

// UpdateCustomer applies a partial update to contact fields.
func (s *Service) UpdateCustomer(ctx context.Context, id string, update CustomerUpdate) (Customer, error) {
	var updated Customer
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.GetCustomerForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if update.Name != nil {
			c.Name = strings.TrimSpace(*update.Name)
		}
		if update.Phone != nil {
			c.Phone = strings.TrimSpace(*update.Phone)
		}
		if update.Email != nil {
			c.Email = *update.Email
		}
		if update.Address != nil {
			c.Address = *update.Address
		}
		if c.Name == "" {
			return shared.NewValidationError("name", "required")
		}
		if c.Phone == "" {
			return shared.NewValidationError("phone", "required")
		}
		if err := tx.UpdateCustomer(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	return updated, err
}

// GetCustomer resolves a customer. The walk-in sentinel resolves without a
// repository read.
func (s *Service) GetCustomer(ctx context.Context, id string) (Customer, error) {
	if id == WalkInCustomerID {
		return WalkIn(), nil
	}
	return s.repo.GetCustomer(ctx, id)
}

// ListCustomers returns all registered customers.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// CreateSupplier registers a supplier.
func (s *Service) CreateSupplier(ctx context.Context, input SupplierInput) (Supplier, error) {
	v := &shared.ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "required")
	}
	if strings.TrimSpace(input.Phone) == "" {
		v.Add("phone", "required")
	}
	if err := v.ErrOrNil(); err != nil {
		return Supplier{}, err
	}
	sup := Supplier{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Email:        input.Email,
		Address:      input.Address,
		RegisteredAt: s.now().UTC(),
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertSupplier(ctx, sup)
	})
	if err != nil {
		return Supplier{}, fmt.Errorf("party: create supplier: %w", err)
	}
	return sup, nil
}

// UpdateSupplier applies a partial update.
func (s *Service) UpdateSupplier(ctx context.Context, id string, update SupplierUpdate) (Supplier, error) {
	var updated Supplier
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sup, err := tx.GetSupplierForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if update.Name != nil {
			sup.Name = strings.TrimSpace(*update.Name)
		}
		if update.Phone != nil {
			sup.Phone = strings.TrimSpace(*update.Phone)
		}
		if update.Email != nil {
			sup.Email = *update.Email
		}
		if update.Address != nil {
			sup.Address = *update.Address
		}
		if sup.Name == "" {
			return shared.NewValidationError("name", "required")
		}
		if err := tx.UpdateSupplier(ctx, sup); err != nil {
			return err
		}
		updated = sup
		return nil
	})
	return updated, err
}

// GetSupplier resolves a supplier.
func (s *Service) GetSupplier(ctx context.Context, id string) (Supplier, error) {
	return s.repo.GetSupplier(ctx, id)
}

// ListSuppliers returns all suppliers.
func (s *Service) ListSuppliers(ctx context.Context) ([]Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}
