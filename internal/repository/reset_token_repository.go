package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/model"
)

// ResetTokenRepo persists password-reset tokens, hashed at rest like
// refresh tokens. Consumption and the password update happen inside one
// transaction so a token can never be spent without the password
// actually changing, or vice versa.
type ResetTokenRepo struct{ DB *sql.DB }

func NewResetTokenRepo(db *sql.DB) *ResetTokenRepo { return &ResetTokenRepo{DB: db} }

// Create inserts a reset token hash row.
func (r *ResetTokenRepo) Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_reset_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// FindByHash returns the stored record for a token hash without
// filtering on used/expired, so callers can report which rule failed.
func (r *ResetTokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.PasswordResetToken, error) {
	var (
		t      model.PasswordResetToken
		usedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, created_at, expires_at, used, used_at FROM password_reset_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.CreatedAt, &t.ExpiresAt, &t.Used, &usedAt)
	if err != nil {
		return model.PasswordResetToken{}, err
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	return t, nil
}

// Consume marks the token used and writes the new password hash in a
// single transaction. The token update carries a WHERE used=0 guard and
// the affected-row count is checked, so of two concurrent requests
// presenting the same token exactly one wins; the loser gets
// ErrConflict and no password write.
func (r *ResetTokenRepo) Consume(ctx context.Context, tokenID, userID uint64, newPasswordHash string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"UPDATE password_reset_tokens SET used=1, used_at=UTC_TIMESTAMP() WHERE id=? AND used=0",
		tokenID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=UTC_TIMESTAMP() WHERE id=?",
		newPasswordHash, userID); err != nil {
		return err
	}
	return tx.Commit()
}
