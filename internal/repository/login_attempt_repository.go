package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/model"
)

// LoginAttemptRepo tracks failed logins per (email, ip_address) pair in
// the `login_attempts` table, which carries a unique key on the pair.
type LoginAttemptRepo struct{ DB *sql.DB }

func NewLoginAttemptRepo(db *sql.DB) *LoginAttemptRepo { return &LoginAttemptRepo{DB: db} }

// Upsert records one failed attempt for the pair and returns the row as
// it stands afterwards. The increment is a single INSERT ... ON
// DUPLICATE KEY UPDATE statement, so two concurrent failures cannot both
// read the same counter value and lose an increment.
func (r *LoginAttemptRepo) Upsert(ctx context.Context, email, ip string) (model.LoginAttempt, error) {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO login_attempts (email, ip_address, failed_attempts, last_attempt)
		 VALUES (?,?,1,UTC_TIMESTAMP())
		 ON DUPLICATE KEY UPDATE failed_attempts = failed_attempts + 1, last_attempt = UTC_TIMESTAMP()`,
		email, ip)
	if err != nil {
		return model.LoginAttempt{}, err
	}
	return r.Get(ctx, email, ip)
}

// Lock sets the lockout deadline for the pair. Setting it twice under a
// race is harmless: both writers compute the same window from now.
func (r *LoginAttemptRepo) Lock(ctx context.Context, email, ip string, until time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE login_attempts SET locked_until=? WHERE email=? AND ip_address=?",
		until, email, ip)
	return err
}

// Get returns the attempt row for the pair, or sql.ErrNoRows when the
// pair has no recorded failures.
func (r *LoginAttemptRepo) Get(ctx context.Context, email, ip string) (model.LoginAttempt, error) {
	var (
		a           model.LoginAttempt
		lockedUntil sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, ip_address, failed_attempts, last_attempt, locked_until FROM login_attempts WHERE email=? AND ip_address=? LIMIT 1",
		email, ip).Scan(&a.ID, &a.Email, &a.IPAddress, &a.FailedAttempts, &a.LastAttempt, &lockedUntil)
	if err != nil {
		return model.LoginAttempt{}, err
	}
	if lockedUntil.Valid {
		a.LockedUntil = &lockedUntil.Time
	}
	return a, nil
}

// Delete removes the attempt row for the pair. Called after a successful
// authentication; deleting a missing row is not an error.
func (r *LoginAttemptRepo) Delete(ctx context.Context, email, ip string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM login_attempts WHERE email=? AND ip_address=?",
		email, ip)
	return err
}
