package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"mininotion/internal/auth"
	"mininotion/internal/user/model"
	"mininotion/pkg/apperror"
	"mininotion/store"

	"github.com/google/uuid"
)

const minPasswordLength = 8

type UserRepository interface {
	CreateUser(ctx context.Context, u *store.User) error
	GetUserByID(ctx context.Context, id string) (*store.User, error)
	GetUserByEmail(ctx context.Context, email string) (*store.User, error)
}

type UserService struct {
	Repo   UserRepository
	Tokens *auth.Tokens
}

func NewUserService(repo UserRepository, tokens *auth.Tokens) *UserService {
	return &UserService{Repo: repo, Tokens: tokens}
}

// NormalizeEmail is the canonical form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Resolve maps a verified email to the persisted user.
func (s *UserService) Resolve(ctx context.Context, email string) (*store.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperror.Unauthenticated("Unauthorized")
	}
	u, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return u, nil
}

// FindByEmail looks up a share target. Unlike Resolve, an empty email is a
// validation failure rather than a missing session.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*store.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, apperror.Validation("Email is required")
	}
	u, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return u, nil
}

func (s *UserService) Signup(ctx context.Context, req model.SignupRequest) (*model.AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" {
		return nil, apperror.Validation("Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.Validation("Email is invalid")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperror.Validation("Password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	u := &store.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
	}
	if err := s.Repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperror.Conflict("Email is already registered")
		}
		return nil, apperror.Internal(err)
	}
	return s.issue(u)
}

func (s *UserService) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperror.Validation("Email and password are required")
	}
	u, err := s.Repo.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Unauthenticated("Invalid email or password")
	}
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := auth.VerifyPassword(u.PasswordHash, req.Password); err != nil {
		return nil, apperror.Unauthenticated("Invalid email or password")
	}
	return s.issue(u)
}

func (s *UserService) issue(u *store.User) (*model.AuthResponse, error) {
	token, err := s.Tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &model.AuthResponse{Token: token, User: *u}, nil
}
