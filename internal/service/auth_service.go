package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shipbridge/shipbridge/internal/auth"
	"github.com/shipbridge/shipbridge/internal/model"
	"github.com/shipbridge/shipbridge/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, user model.User) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	CreateRefreshToken(ctx context.Context, token model.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, id uuid.UUID) (int64, error)
}

type AuthService struct {
	users      UserStore
	tokens     *auth.Manager
	refreshTTL time.Duration
}

func NewAuthService(users UserStore, tokens *auth.Manager, refreshTTL time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, refreshTTL: refreshTTL}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	User         model.User
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !model.ValidRole(input.Role) {
		return nil, fmt.Errorf("%w: role must be shipper or carrier", ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.Create(ctx, model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(input.Name),
		Role:         input.Role,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	return s.issuePair(ctx, *user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issuePair(ctx, *user)
}

// Refresh rotates a single-use refresh token. Revocation is a compare-and-
// swap, so two concurrent refreshes with the same token yield one winner
// and one ErrInvalidCredentials.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	stored, err := s.users.GetRefreshToken(ctx, auth.HashRefreshToken(rawToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, ErrInvalidCredentials
	}

	rows, err := s.users.RevokeRefreshToken(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return s.issuePair(ctx, *user)
}

func (s *AuthService) issuePair(ctx context.Context, user model.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user, time.Now())
	if err != nil {
		return nil, err
	}
	raw, hash, err := auth.NewRefreshToken()
	if err != nil {
		return nil, err
	}
	err = s.users.CreateRefreshToken(ctx, model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: raw, User: user}, nil
}

var _ UserStore = (*repository.UserRepository)(nil)
