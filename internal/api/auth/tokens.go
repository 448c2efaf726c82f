package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/storage"
)

// ErrInvalidRefreshToken covers unknown, expired and revoked refresh tokens.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

// Store is the part of storage the auth package needs.
type Store interface {
	Users() storage.UserRepository
	Tokens() storage.TokenRepository
}

// TokenService handles refresh token operations.
type TokenService struct {
	store Store
	ttl   time.Duration
}

// NewTokenService creates a new token service.
func NewTokenService(store Store, ttl time.Duration) *TokenService {
	return &TokenService{store: store, ttl: ttl}
}

// CreateRefreshToken stores a new refresh token for the user and returns
// the plaintext to hand to the client.
func (s *TokenService) CreateRefreshToken(ctx context.Context, userID string) (string, error) {
	token, plain, err := models.NewRefreshToken(userID, s.ttl)
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.store.Tokens().Create(ctx, token); err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return plain, nil
}

// ValidateRefreshToken returns the owner of a live refresh token.
func (s *TokenService) ValidateRefreshToken(ctx context.Context, plain string) (*models.User, error) {
	token, err := s.store.Tokens().GetByTokenHash(ctx, models.HashToken(plain))
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if token == nil || !token.IsValid() {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.store.Users().GetByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}
	return user, nil
}

// RevokeRefreshToken revokes a single refresh token.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, plain string) error {
	return s.store.Tokens().RevokeByTokenHash(ctx, models.HashToken(plain))
}

// RevokeAllUserTokens signs the user out everywhere.
func (s *TokenService) RevokeAllUserTokens(ctx context.Context, userID string) error {
	return s.store.Tokens().RevokeAllForUser(ctx, userID)
}

// RotateRefreshToken revokes old and issues a replacement.
func (s *TokenService) RotateRefreshToken(ctx context.Context, old, userID string) (string, error) {
	if err := s.RevokeRefreshToken(ctx, old); err != nil {
		log.Printf("refresh token rotation: revoke old token for user %s: %v", userID, err)
	}
	return s.CreateRefreshToken(ctx, userID)
}

// CleanupExpiredTokens removes expired tokens from storage.
func (s *TokenService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.store.Tokens().DeleteExpired(ctx)
}
