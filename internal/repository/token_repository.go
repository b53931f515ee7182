package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/model"
)

// TokenRepo persists refresh tokens. Only the SHA-256 hash of a token is
// stored; rows survive revocation so the registry doubles as an audit
// trail of issued grants.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// FindByHash returns the stored record for a token hash. Callers decide
// what revoked or expired means for their flow; the lookup itself does
// not filter so that revoked and expired stay distinguishable.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var (
		t         model.RefreshToken
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, created_at, expires_at, revoked, revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.Revoked, &revokedAt)
	if err != nil {
		return model.RefreshToken{}, err
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	return t, nil
}

// RevokeByHash marks a token as revoked. The WHERE clause makes the
// update a compare-and-swap: an already-revoked token is left untouched,
// keeping its original revoked_at, and the call still returns nil so
// revocation stays idempotent.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1, revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked=0",
		tokenHash)
	return err
}

// ListByUser returns the user's token rows, newest first, revoked rows
// included. The registry is an audit trail, so the caller sees every
// grant, not just the live ones.
func (r *TokenRepo) ListByUser(ctx context.Context, userID uint64) ([]model.RefreshToken, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, token_hash, created_at, expires_at, revoked, revoked_at
		 FROM refresh_tokens WHERE user_id=? ORDER BY created_at DESC, id DESC LIMIT 100`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RefreshToken
	for rows.Next() {
		var (
			t         model.RefreshToken
			revokedAt sql.NullTime
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.Revoked, &revokedAt); err != nil {
			return nil, err
		}
		if revokedAt.Valid {
			t.RevokedAt = &revokedAt.Time
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// RevokeAllForUser revokes all of a user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1, revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked=0",
		userID)
	return err
}
