//go:build !integration

package user

import (
	"context"
	"testing"
	"time"

	"justEatMore/domain"
	"justEatMore/internal/repository/memory"
	"justEatMore/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *userService {
	t.Helper()
	utils.InitJWT("test-secret", time.Hour)

	svc := NewUserService(memory.NewUserRepository(), validator.New(), memory.NewLoginLimiter(5, 5*time.Minute))
	_, err := svc.Register(context.Background(), &domain.User{
		FullName: "Ops Admin",
		Email:    "Admin@JustEatMore.test",
		Password: "secret123",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)
	return svc
}

func TestLoginIssuesToken(t *testing.T) {
	svc := newService(t)

	token, user, err := svc.Login(context.Background(), "admin@justeatmore.test", "secret123", "10.0.0.1")
	require.NoError(t, err)
	assert.Empty(t, user.Password)

	claims, err := utils.ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestLoginLockout(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _, err := svc.Login(ctx, "admin@justeatmore.test", "wrong", "10.0.0.2")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}

	_, _, err := svc.Login(ctx, "admin@justeatmore.test", "secret123", "10.0.0.2")
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)

	_, _, err = svc.Login(ctx, "admin@justeatmore.test", "secret123", "10.0.0.3")
	assert.NoError(t, err, "other clients are not locked out")
}

func TestLoginSuccessResetsAttempts(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _, _ = svc.Login(ctx, "admin@justeatmore.test", "wrong", "10.0.0.4")
	}
	_, _, err := svc.Login(ctx, "admin@justeatmore.test", "secret123", "10.0.0.4")
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, _, err = svc.Login(ctx, "admin@justeatmore.test", "wrong", "10.0.0.4")
		require.ErrorIs(t, err, domain.ErrInvalidCredentials)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newService(t)

	_, _, err := svc.Login(context.Background(), "nobody@justeatmore.test", "secret123", "10.0.0.5")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, &domain.User{Email: "not-an-email", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(ctx, &domain.User{Email: "staff@justeatmore.test", Password: "123"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Register(ctx, &domain.User{Email: "admin@justeatmore.test", Password: "secret123"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	u, err := svc.Register(ctx, &domain.User{FullName: "Staff", Email: "staff@justeatmore.test", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, u.Role)
}
