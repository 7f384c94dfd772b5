package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/medishop/medishop/internal/shared"
)

type memoryRepo struct {
	byUsername map[string]Staff
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byUsername: make(map[string]Staff)}
}

func (r *memoryRepo) Insert(ctx context.Context, s Staff) error {
	r.byUsername[s.Username] = s
	return nil
}

func (r *memoryRepo) GetByUsername(ctx context.Context, username string) (Staff, error) {
	s, ok := r.byUsername[username]
	if !ok {
		return Staff{}, shared.ErrNotFound
	}
	return s, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	staff, err := svc.Register(ctx, RegisterInput{
		Username: "asha", Name: "Asha", Role: RoleCashier, Password: "correct horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, staff.ID)
	require.NotEqual(t, "correct horse", staff.PasswordHash)

	got, err := svc.Login(ctx, "asha", "correct horse")
	require.NoError(t, err)
	require.Equal(t, staff.ID, got.ID)
}

func TestLoginFailures(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{
		Username: "asha", Name: "Asha", Role: RoleAdmin, Password: "correct horse",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "asha", "wrong password")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)

	// Unknown users fail the same way.
	_, err = svc.Login(ctx, "nobody", "correct horse")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Register(context.Background(), RegisterInput{Password: "short", Role: "owner"})
	require.True(t, shared.IsValidation(err))
}
