package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/model"
)

// TwoFactorRepo manages the one-row-per-user `two_factor_auth` table.
// Backup codes travel as a JSON array of SHA-256 digests in a single
// column, matching how the rest of the backend stores small lists.
type TwoFactorRepo struct{ DB *sql.DB }

func NewTwoFactorRepo(db *sql.DB) *TwoFactorRepo { return &TwoFactorRepo{DB: db} }

// Get returns the 2FA configuration for a user, or sql.ErrNoRows when
// the user never ran setup.
func (r *TwoFactorRepo) Get(ctx context.Context, userID uint64) (model.TwoFactorAuth, error) {
	var (
		t          model.TwoFactorAuth
		codesJSON  []byte
		pendingExp sql.NullTime
		verifiedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, is_enabled, method, secret_key, backup_codes,
		        pending_code_hash, pending_code_expires_at, verified, verified_at, created_at, updated_at
		 FROM two_factor_auth WHERE user_id=? LIMIT 1`,
		userID).Scan(&t.ID, &t.UserID, &t.IsEnabled, &t.Method, &t.SecretKey, &codesJSON,
		&t.PendingCodeHash, &pendingExp, &t.Verified, &verifiedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.TwoFactorAuth{}, err
	}
	if len(codesJSON) > 0 {
		if err := json.Unmarshal(codesJSON, &t.BackupCodes); err != nil {
			return model.TwoFactorAuth{}, err
		}
	}
	if pendingExp.Valid {
		t.PendingCodeExp = &pendingExp.Time
	}
	if verifiedAt.Valid {
		t.VerifiedAt = &verifiedAt.Time
	}
	return t, nil
}

// Replace creates the configuration for a user or resets an existing one
// to the given method. Any reset discards the previous secret,
// verification state, backup codes and pending code, so changing method
// always forces re-verification.
func (r *TwoFactorRepo) Replace(ctx context.Context, userID uint64, method, secret string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO two_factor_auth (user_id, method, secret_key, backup_codes)
		 VALUES (?,?,?,'[]')
		 ON DUPLICATE KEY UPDATE method=VALUES(method), secret_key=VALUES(secret_key),
		   is_enabled=0, verified=0, verified_at=NULL, backup_codes='[]',
		   pending_code_hash='', pending_code_expires_at=NULL`,
		userID, method, secret)
	return err
}

// SetPendingCode stores the bcrypt hash and deadline of the most
// recently dispatched email/SMS code, replacing any earlier one.
func (r *TwoFactorRepo) SetPendingCode(ctx context.Context, userID uint64, codeHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE two_factor_auth SET pending_code_hash=?, pending_code_expires_at=? WHERE user_id=?",
		codeHash, exp, userID)
	return err
}

// MarkVerified flips the verified flag, records the time, stores the
// freshly generated backup-code hashes and clears any pending code.
func (r *TwoFactorRepo) MarkVerified(ctx context.Context, userID uint64, backupCodeHashes []string) error {
	codesJSON, err := json.Marshal(backupCodeHashes)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE two_factor_auth SET verified=1, verified_at=UTC_TIMESTAMP(), backup_codes=?,
		   pending_code_hash='', pending_code_expires_at=NULL
		 WHERE user_id=?`,
		codesJSON, userID)
	return err
}

// SetEnabled toggles enforcement. Verification state is left alone so
// disabling and later re-enabling does not require a new code check.
func (r *TwoFactorRepo) SetEnabled(ctx context.Context, userID uint64, enabled bool) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE two_factor_auth SET is_enabled=? WHERE user_id=?",
		enabled, userID)
	return err
}

// SaveBackupCodes replaces the stored backup-code hash set, either on
// explicit regeneration or after one code was consumed.
func (r *TwoFactorRepo) SaveBackupCodes(ctx context.Context, userID uint64, backupCodeHashes []string) error {
	codesJSON, err := json.Marshal(backupCodeHashes)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE two_factor_auth SET backup_codes=? WHERE user_id=?",
		codesJSON, userID)
	return err
}
