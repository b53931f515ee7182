package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/model"
	"github.com/iliyamo/hr-auth-service/internal/utils"
)

// TokenService mints access/refresh token pairs and renews access tokens
// against the refresh-token registry. Access tokens are self-contained
// HS256 JWTs; refresh tokens are opaque random strings persisted as
// SHA-256 hashes so they can be revoked individually before expiry.
type TokenService struct {
	users  UserStore
	tokens RefreshStore

	secret         string
	accessTTLMin   int
	refreshTTLDays int
}

func NewTokenService(users UserStore, tokens RefreshStore, secret string, accessTTLMin, refreshTTLDays int) *TokenService {
	return &TokenService{
		users:          users,
		tokens:         tokens,
		secret:         secret,
		accessTTLMin:   accessTTLMin,
		refreshTTLDays: refreshTTLDays,
	}
}

// Issue mints a token pair for the user and persists the refresh grant.
// One refresh token is created per login.
func (s *TokenService) Issue(ctx context.Context, u model.User) (utils.AccessToken, utils.OpaqueToken, error) {
	access, err := utils.NewAccessToken(s.secret, u.ID, u.Role, s.accessTTLMin)
	if err != nil {
		return utils.AccessToken{}, utils.OpaqueToken{}, err
	}
	refresh, err := utils.NewRefreshToken(s.refreshTTLDays)
	if err != nil {
		return utils.AccessToken{}, utils.OpaqueToken{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, utils.HashTokenRaw(refresh.Raw), refresh.Exp); err != nil {
		return utils.AccessToken{}, utils.OpaqueToken{}, err
	}
	return access, refresh, nil
}

// RenewAccess exchanges a refresh token for a fresh access token. The
// refresh token itself is not rotated; it stays reusable until explicit
// revocation or natural expiry. Revocation is checked before expiry so a
// token that is both yields ErrRevokedToken.
func (s *TokenService) RenewAccess(ctx context.Context, raw string) (utils.AccessToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return utils.AccessToken{}, ErrMissingCredentials
	}

	rec, err := s.tokens.FindByHash(ctx, utils.HashTokenRaw(raw))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.AccessToken{}, ErrInvalidToken
		}
		return utils.AccessToken{}, err
	}
	if rec.Revoked {
		return utils.AccessToken{}, ErrRevokedToken
	}
	if !time.Now().UTC().Before(rec.ExpiresAt) {
		return utils.AccessToken{}, ErrExpiredToken
	}

	u, err := s.users.GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return utils.AccessToken{}, ErrInvalidToken
		}
		return utils.AccessToken{}, err
	}
	return utils.NewAccessToken(s.secret, u.ID, u.Role, s.accessTTLMin)
}

// Revoke marks the refresh token revoked. Unknown and already-revoked
// tokens are not errors, which makes logout idempotent.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return s.tokens.RevokeByHash(ctx, utils.HashTokenRaw(raw))
}

// RevokeAll revokes every active refresh token of a user, logging the
// user out of all sessions across devices.
func (s *TokenService) RevokeAll(ctx context.Context, userID uint64) error {
	return s.tokens.RevokeAllForUser(ctx, userID)
}

// ListByUser returns the user's refresh-token grants, newest first.
func (s *TokenService) ListByUser(ctx context.Context, userID uint64) ([]model.RefreshToken, error) {
	return s.tokens.ListByUser(ctx, userID)
}
