package model

import "time"

// PasswordResetToken models an entry in the `password_reset_tokens`
// table: a single-use, time-boxed capability to set a new password.
// Only the SHA-256 hash of the token is stored, mirroring how refresh
// tokens are kept at rest.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user whose password the token can reset.
//  TokenHash – SHA-256 hex digest of the token value.
//  CreatedAt – timestamp of creation.
//  ExpiresAt – creation time plus the configured reset TTL.
//  Used      – whether the token has been consumed.
//  UsedAt    – when the token was consumed (nil while unused).
type PasswordResetToken struct {
	ID        uint64     // password_reset_tokens.id
	UserID    uint64     // password_reset_tokens.user_id
	TokenHash string     // password_reset_tokens.token_hash
	CreatedAt time.Time  // password_reset_tokens.created_at
	ExpiresAt time.Time  // password_reset_tokens.expires_at
	Used      bool       // password_reset_tokens.used
	UsedAt    *time.Time // password_reset_tokens.used_at (nullable)
}
