package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubtmate/doubtmate/internal/app/models/dto"
	"github.com/doubtmate/doubtmate/internal/pkg/apperrors"
	"github.com/doubtmate/doubtmate/internal/pkg/auth"
)

func newAuthTestEnv(t *testing.T) (*AuthService, *fakeUserStore, *auth.JWTService) {
	t.Helper()
	users := newFakeUserStore()
	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "test",
	})
	return NewAuthService(users, jwtService, zerolog.Nop()), users, jwtService
}

func TestRegister(t *testing.T) {
	service, users, jwtService := newAuthTestEnv(t)

	resp, err := service.Register(context.Background(), &dto.RegisterRequest{
		Name:     "  John Doe  ",
		Email:    "  John@Example.COM  ",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "John Doe", resp.User.Name)
	assert.Equal(t, "john@example.com", resp.User.Email, "email is normalized to lowercase")
	assert.InDelta(t, 5.0, resp.User.Rating, 0.0001, "new users start at 5.0")

	claims, err := jwtService.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "john@example.com", claims.Email)

	stored, err := users.FindByEmail(context.Background(), "john@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.Password, "password is stored hashed")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _, _ := newAuthTestEnv(t)

	req := &dto.RegisterRequest{Name: "John", Email: "john@example.com", Password: "secret123"}
	_, err := service.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = service.Register(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	service, _, _ := newAuthTestEnv(t)

	_, err := service.Register(context.Background(), &dto.RegisterRequest{
		Name: "John", Email: "john@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	resp, err := service.Login(context.Background(), &dto.LoginRequest{
		Email:    "John@Example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "john@example.com", resp.User.Email)
}

func TestLoginInvalidCredentials(t *testing.T) {
	service, _, _ := newAuthTestEnv(t)

	_, err := service.Register(context.Background(), &dto.RegisterRequest{
		Name: "John", Email: "john@example.com", Password: "secret123",
	})
	require.NoError(t, err)

	// Wrong password and unknown account yield the same error
	_, err = service.Login(context.Background(), &dto.LoginRequest{
		Email: "john@example.com", Password: "wrong",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = service.Login(context.Background(), &dto.LoginRequest{
		Email: "nobody@example.com", Password: "secret123",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
