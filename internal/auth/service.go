// Package auth implements signup, sign-in and bearer-token sessions.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/articlegen/internal/apperr"
	"github.com/starford/articlegen/internal/models"
)

// Store is the persistence the auth service needs.
type Store interface {
	CreateUser(ctx context.Context, u models.User, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (models.User, string, error)
	User(ctx context.Context, id string) (models.User, error)
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
	TokenRevoked(ctx context.Context, jti string) (bool, error)
}

// Settings configure token lifetimes and hashing.
type Settings struct {
	Secret      string
	TokenTTL    time.Duration
	RememberTTL time.Duration
	BcryptCost  int
}

// Session is an authenticated user and their bearer token.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Service authenticates users.
type Service struct {
	store    Store
	tokens   *Tokens
	hasher   Hasher
	settings Settings
}

// NewService creates the auth service.
func NewService(store Store, s Settings) *Service {
	return &Service{
		store:    store,
		tokens:   NewTokens(s.Secret),
		hasher:   Hasher{Cost: s.BcryptCost},
		settings: s,
	}
}

// SignUp creates an account and signs it in.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (Session, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return Session{}, &Error{Code: CodeInvalidInput, Message: "Name, email and password are required."}
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return Session{}, err
	}
	u := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateUser(ctx, u, hash); err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			return Session{}, errEmailTaken
		}
		return Session{}, fmt.Errorf("auth: create user: %w", err)
	}
	return s.issue(u, s.settings.TokenTTL)
}

// SignIn checks credentials. remember selects the longer token lifetime.
func (s *Service) SignIn(ctx context.Context, email, password string, remember bool) (Session, error) {
	u, hash, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Session{}, errInvalidCredentials
		}
		return Session{}, fmt.Errorf("auth: lookup user: %w", err)
	}
	if !s.hasher.Verify(password, hash) {
		return Session{}, errInvalidCredentials
	}
	ttl := s.settings.TokenTTL
	if remember && s.settings.RememberTTL > 0 {
		ttl = s.settings.RememberTTL
	}
	return s.issue(u, ttl)
}

// SignOut revokes token. Signing out an invalid or expired token is a no-op.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.store.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

// Current returns the user behind a valid, unrevoked token.
func (s *Service) Current(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.User{}, errUnauthorized
	}
	revoked, err := s.store.TokenRevoked(ctx, claims.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("auth: check revocation: %w", err)
	}
	if revoked {
		return models.User{}, errUnauthorized
	}
	u, err := s.store.User(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.User{}, errUnauthorized
		}
		return models.User{}, fmt.Errorf("auth: load user: %w", err)
	}
	return u, nil
}

// UserByEmail looks up an account, for tools that act on behalf of a user.
func (s *Service) UserByEmail(ctx context.Context, email string) (models.User, error) {
	u, _, err := s.store.UserByEmail(ctx, normalizeEmail(email))
	return u, err
}

func (s *Service) issue(u models.User, ttl time.Duration) (Session, error) {
	tok, claims, err := s.tokens.Issue(u.ID, ttl)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: tok, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}
