package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mininotion/internal/auth"
	"mininotion/internal/user/model"
	"mininotion/pkg/apperror"
	"mininotion/store"
)

func newService() *UserService {
	return NewUserService(store.NewMemory(), auth.NewTokens("secret", time.Hour))
}

func TestSignupThenResolve(t *testing.T) {
	ctx := context.Background()
	s := newService()

	resp, err := s.Signup(ctx, model.SignupRequest{Email: "  Alice@Example.com ", Name: "Alice", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email)

	claims, err := s.Tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.Subject)

	u, err := s.Resolve(ctx, claims.Email)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, u.ID)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	s := newService()

	_, err := s.Signup(ctx, model.SignupRequest{Password: "password1"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = s.Signup(ctx, model.SignupRequest{Email: "not-an-email", Password: "password1"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = s.Signup(ctx, model.SignupRequest{Email: "a@example.com", Password: "short"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestSignupDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newService()
	_, err := s.Signup(ctx, model.SignupRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = s.Signup(ctx, model.SignupRequest{Email: "A@example.com", Password: "password2"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	s := newService()
	_, err := s.Signup(ctx, model.SignupRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	resp, err := s.Login(ctx, model.LoginRequest{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = s.Login(ctx, model.LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))

	_, err = s.Login(ctx, model.LoginRequest{Email: "nobody@example.com", Password: "password1"})
	assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))
}

func TestResolveFailures(t *testing.T) {
	ctx := context.Background()
	s := newService()

	_, err := s.Resolve(ctx, "")
	assert.Equal(t, apperror.KindUnauthenticated, apperror.KindOf(err))

	_, err = s.Resolve(ctx, "ghost@example.com")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = s.FindByEmail(ctx, " ")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}
