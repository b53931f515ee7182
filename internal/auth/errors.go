// Package auth implements the authentication and session-lifecycle core
// of the HR backend: credential verification with brute-force lockout,
// access/refresh token issuance and revocation, password-reset tokens
// and two-factor authentication. Handlers translate the sentinel errors
// below into HTTP status codes; none of these failures is retried inside
// this package.
package auth

import (
	"errors"
	"fmt"
	"time"
)

// MinPasswordLen is the only enforced password policy rule.
const MinPasswordLen = 8

var (
	// ErrMissingCredentials signals a malformed request: identifier or
	// secret absent.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrInvalidCredentials covers both unknown identifier and wrong
	// password. The message deliberately does not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountDisabled means the credentials were correct but the
	// account is deactivated. More specific than ErrInvalidCredentials
	// since account existence is already proven at that point.
	ErrAccountDisabled = errors.New("account disabled")

	// ErrInvalidToken is returned for tokens that are unknown or
	// structurally unusable.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned for known tokens past their expiry.
	ErrExpiredToken = errors.New("expired token")

	// ErrRevokedToken is returned for refresh tokens that were
	// explicitly revoked before natural expiry.
	ErrRevokedToken = errors.New("revoked token")

	// ErrTokenUsed is returned when a single-use token is replayed.
	ErrTokenUsed = errors.New("token already used")

	// ErrWeakPassword is returned when a new password violates policy.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLen)

	// ErrNotVerified is returned when 2FA enable is attempted before a
	// successful code verification for the current configuration.
	ErrNotVerified = errors.New("two-factor authentication not verified")

	// ErrNotConfigured is returned when a 2FA operation is attempted by
	// a user who never ran setup.
	ErrNotConfigured = errors.New("two-factor authentication not configured")

	// ErrInvalidMethod is returned for an unknown 2FA method.
	ErrInvalidMethod = errors.New("invalid two-factor method")

	// ErrInvalidCode is returned when a 2FA or backup code does not
	// check out.
	ErrInvalidCode = errors.New("invalid code")
)

// LockedError reports an active brute-force lockout together with the
// time left in the window, so handlers can surface a retry hint.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, locked for another %ds", int(e.Remaining.Seconds()))
}
