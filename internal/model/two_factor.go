package model

import "time"

// Supported two-factor methods. TOTP uses a shared secret and an
// authenticator app; email and SMS rely on a dispatched one-time code.
const (
	TwoFactorMethodEmail = "email"
	TwoFactorMethodSMS   = "sms"
	TwoFactorMethodTOTP  = "totp"
)

// TwoFactorAuth is the one-to-one 2FA configuration for a user, stored
// in the `two_factor_auth` table. Enabled may only be true once the
// configuration has been verified with a correct code. Backup codes are
// stored as SHA-256 hashes and removed one by one as they are consumed.
// For email/SMS methods the most recently dispatched code is kept as a
// bcrypt hash with its own short validity window.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – owner; unique, one configuration per user.
//  IsEnabled       – whether 2FA is enforced at login.
//  Method          – one of the TwoFactorMethod* constants.
//  SecretKey       – base32 TOTP secret (empty for email/SMS).
//  BackupCodes     – SHA-256 hex digests of the unused backup codes.
//  PendingCodeHash – bcrypt hash of the last dispatched email/SMS code.
//  PendingCodeExp  – when the dispatched code stops being accepted.
//  Verified        – whether a correct code was checked after setup.
//  VerifiedAt      – when verification happened (nil if never).
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type TwoFactorAuth struct {
	ID              uint64     // two_factor_auth.id
	UserID          uint64     // two_factor_auth.user_id
	IsEnabled       bool       // two_factor_auth.is_enabled
	Method          string     // two_factor_auth.method
	SecretKey       string     // two_factor_auth.secret_key
	BackupCodes     []string   // two_factor_auth.backup_codes (JSON array)
	PendingCodeHash string     // two_factor_auth.pending_code_hash
	PendingCodeExp  *time.Time // two_factor_auth.pending_code_expires_at
	Verified        bool       // two_factor_auth.verified
	VerifiedAt      *time.Time // two_factor_auth.verified_at (nullable)
	CreatedAt       time.Time  // two_factor_auth.created_at
	UpdatedAt       time.Time  // two_factor_auth.updated_at
}
