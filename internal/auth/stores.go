package auth

import (
	"context"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/model"
	"github.com/iliyamo/hr-auth-service/internal/queue"
)

// The interfaces below are what the auth services need from storage and
// messaging. The repository package satisfies them with MySQL; tests use
// in-memory fakes.

// UserStore is the user-directory surface the auth core depends on.
type UserStore interface {
	Create(ctx context.Context, email, username, password, role, firstName, lastName string, cost int) (uint64, error)
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// AttemptStore persists per-(identifier, origin) failure bookkeeping.
// Upsert must increment atomically; see the repository implementation.
type AttemptStore interface {
	Upsert(ctx context.Context, email, ip string) (model.LoginAttempt, error)
	Lock(ctx context.Context, email, ip string, until time.Time) error
	Get(ctx context.Context, email, ip string) (model.LoginAttempt, error)
	Delete(ctx context.Context, email, ip string) error
}

// RefreshStore is the refresh-token registry.
type RefreshStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	ListByUser(ctx context.Context, userID uint64) ([]model.RefreshToken, error)
}

// ResetStore persists password-reset tokens. Consume must pair token
// consumption with the password write in one transaction.
type ResetStore interface {
	Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindByHash(ctx context.Context, tokenHash string) (model.PasswordResetToken, error)
	Consume(ctx context.Context, tokenID, userID uint64, newPasswordHash string) error
}

// TwoFactorStore persists per-user 2FA configuration.
type TwoFactorStore interface {
	Get(ctx context.Context, userID uint64) (model.TwoFactorAuth, error)
	Replace(ctx context.Context, userID uint64, method, secret string) error
	SetPendingCode(ctx context.Context, userID uint64, codeHash string, exp time.Time) error
	MarkVerified(ctx context.Context, userID uint64, backupCodeHashes []string) error
	SetEnabled(ctx context.Context, userID uint64, enabled bool) error
	SaveBackupCodes(ctx context.Context, userID uint64, backupCodeHashes []string) error
}

// HistoryStore is the append-only login audit log.
type HistoryStore interface {
	Record(ctx context.Context, h model.LoginHistory) error
	CloseLatestOpen(ctx context.Context, userID uint64, at time.Time) error
	ListByUser(ctx context.Context, userID uint64, limit int) ([]model.LoginHistory, error)
}

// Publisher hands notification events to the message broker. Delivery is
// fire-and-forget from the caller's point of view: publish failures are
// logged and dropped, never surfaced to the requester.
type Publisher interface {
	PublishNotification(ctx context.Context, ev queue.NotificationEvent) error
}

// PublisherFunc adapts a plain function to the Publisher interface.
type PublisherFunc func(ctx context.Context, ev queue.NotificationEvent) error

func (f PublisherFunc) PublishNotification(ctx context.Context, ev queue.NotificationEvent) error {
	return f(ctx, ev)
}
