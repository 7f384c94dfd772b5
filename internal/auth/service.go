package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/medishop/medishop/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	Insert(ctx context.Context, s Staff) error
	GetByUsername(ctx context.Context, username string) (Staff, error)
}

// Service manages staff accounts and credential checks.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates a staff account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, input RegisterInput) (Staff, error) {
	v := &shared.ValidationError{}
	if strings.TrimSpace(input.Username) == "" {
		v.Add("username", "required")
	}
	if strings.TrimSpace(input.Name) == "" {
		v.Add("name", "required")
	}
	if len(input.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if input.Role != RoleAdmin && input.Role != RoleCashier {
		v.Add("role", "must be admin or cashier")
	}
	if err := v.ErrOrNil(); err != nil {
		return Staff{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return Staff{}, err
	}
	staff := Staff{
		ID:           uuid.NewString(),
		Username:     strings.TrimSpace(input.Username),
		Name:         strings.TrimSpace(input.Name),
		Role:         input.Role,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, staff); err != nil {
		return Staff{}, err
	}
	return staff, nil
}

// Login checks credentials. Unknown users and wrong passwords both come back
// as ErrInvalidCredentials so the response does not leak which it was.
func (s *Service) Login(ctx context.Context, username, password string) (Staff, error) {
	staff, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Staff{}, shared.ErrInvalidCredentials
		}
		return Staff{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(password)) != nil {
		return Staff{}, shared.ErrInvalidCredentials
	}
	return staff, nil
}
