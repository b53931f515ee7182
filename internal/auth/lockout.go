package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// LockoutTracker keeps brute-force bookkeeping per (identifier, origin)
// pair. The scope is deliberate: the same identifier attacked from one
// address stays usable from another, so a hostile origin cannot lock a
// legitimate user out globally.
type LockoutTracker struct {
	store       AttemptStore
	maxFailures int
	window      time.Duration
}

// NewLockoutTracker wires the tracker with its policy: maxFailures
// failed logins lock the pair for window.
func NewLockoutTracker(store AttemptStore, maxFailures int, window time.Duration) *LockoutTracker {
	return &LockoutTracker{store: store, maxFailures: maxFailures, window: window}
}

// RecordFailure counts one failed login for the pair and starts the
// lockout window once the threshold is reached. The increment itself is
// atomic in the store; two racers that both observe the threshold simply
// both set the same deadline.
func (t *LockoutTracker) RecordFailure(ctx context.Context, identifier, origin string) error {
	attempt, err := t.store.Upsert(ctx, identifier, origin)
	if err != nil {
		return err
	}
	if attempt.FailedAttempts >= t.maxFailures {
		return t.store.Lock(ctx, identifier, origin, time.Now().UTC().Add(t.window))
	}
	return nil
}

// IsLocked reports whether the pair is inside an active lockout window
// and how long remains. A pair with no record is simply not locked.
func (t *LockoutTracker) IsLocked(ctx context.Context, identifier, origin string) (bool, time.Duration, error) {
	attempt, err := t.store.Get(ctx, identifier, origin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, err
	}
	if attempt.LockedUntil == nil {
		return false, 0, nil
	}
	remaining := time.Until(*attempt.LockedUntil)
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

// Clear drops the failure record for the pair after a successful
// authentication.
func (t *LockoutTracker) Clear(ctx context.Context, identifier, origin string) error {
	return t.store.Delete(ctx, identifier, origin)
}
