package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jengzang/anchor-locator-go/internal/auth"
	"github.com/jengzang/anchor-locator-go/internal/logging"
	"github.com/jengzang/anchor-locator-go/internal/models"
	"github.com/jengzang/anchor-locator-go/internal/repository"
)

// AuthService registers users and issues access tokens
type AuthService struct {
	users  *repository.UserRepository
	issuer *auth.Issuer
	logger logging.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, issuer *auth.Issuer, logger logging.Logger) *AuthService {
	if logger == nil {
		logger = logging.Noop()
	}
	return &AuthService{users: users, issuer: issuer, logger: logger.With(logging.String("component", "auth"))}
}

// Register creates a user. The first registered user becomes a superuser.
func (s *AuthService) Register(ctx context.Context, c models.Credentials) (*models.User, error) {
	username := strings.TrimSpace(c.Username)
	if len(username) < 3 || len(c.Password) < 8 {
		return nil, invalid("username needs 3+ characters and password 8+")
	}
	hash, err := auth.HashPassword(c.Password)
	if err != nil {
		return nil, err
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	u := &models.User{Username: username, PasswordHash: hash, IsSuperuser: count == 0}
	if _, err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("username %q is taken", username)
		}
		return nil, err
	}
	s.logger.Info(ctx, "user registered", logging.Int64("user_id", u.ID), logging.Bool("superuser", u.IsSuperuser))
	return u, nil
}

// Login checks credentials and returns a bearer token
func (s *AuthService) Login(ctx context.Context, c models.Credentials) (*models.TokenResponse, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(c.Username))
	if err != nil {
		return nil, err
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, c.Password) {
		return nil, ErrUnauthorized
	}
	token, expires, err := s.issuer.Issue(u.ID, u.IsSuperuser)
	if err != nil {
		return nil, err
	}
	return &models.TokenResponse{AccessToken: token, TokenType: "bearer", ExpiresAt: expires.Unix()}, nil
}

// Authenticate resolves a bearer token to its user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}
