package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/model"
)

// LoginHistoryRepo appends to and reads the `login_history` audit table.
type LoginHistoryRepo struct{ DB *sql.DB }

func NewLoginHistoryRepo(db *sql.DB) *LoginHistoryRepo { return &LoginHistoryRepo{DB: db} }

// Record appends one attempt row. login_time is set by the database.
func (r *LoginHistoryRepo) Record(ctx context.Context, h model.LoginHistory) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO login_history (user_id, ip_address, user_agent, device_type, browser, is_successful, failure_reason)
		 VALUES (?,?,?,?,?,?,?)`,
		h.UserID, h.IPAddress, h.UserAgent, h.DeviceType, h.Browser, h.IsSuccessful, h.FailureReason)
	return err
}

// CloseLatestOpen stamps the logout time on the user's most recent
// successful row that has no logout yet. Closing when no row is open is
// a no-op, which keeps logout idempotent.
func (r *LoginHistoryRepo) CloseLatestOpen(ctx context.Context, userID uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE login_history SET logout_time=?
		 WHERE user_id=? AND is_successful=1 AND logout_time IS NULL
		 ORDER BY login_time DESC LIMIT 1`,
		at, userID)
	return err
}

// ListByUser returns a user's most recent attempts, newest first.
func (r *LoginHistoryRepo) ListByUser(ctx context.Context, userID uint64, limit int) ([]model.LoginHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, ip_address, user_agent, device_type, browser, login_time, logout_time, is_successful, failure_reason
		 FROM login_history WHERE user_id=? ORDER BY login_time DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LoginHistory
	for rows.Next() {
		var (
			h          model.LoginHistory
			logoutTime sql.NullTime
		)
		if err := rows.Scan(&h.ID, &h.UserID, &h.IPAddress, &h.UserAgent, &h.DeviceType, &h.Browser,
			&h.LoginTime, &logoutTime, &h.IsSuccessful, &h.FailureReason); err != nil {
			return nil, err
		}
		if logoutTime.Valid {
			h.LogoutTime = &logoutTime.Time
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
