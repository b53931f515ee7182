package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. Each
// refresh token belongs to a user and carries metadata for expiry and
// revocation. The plain token is never stored; only its SHA-256 hash.
// Rows are kept after revocation for audit purposes.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  CreatedAt – timestamp of creation.
//  ExpiresAt – expiration timestamp of the token.
//  Revoked   – whether the token was explicitly revoked.
//  RevokedAt – when the token was revoked (nil while active).
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	CreatedAt time.Time  // refresh_tokens.created_at
	ExpiresAt time.Time  // refresh_tokens.expires_at
	Revoked   bool       // refresh_tokens.revoked
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
}
