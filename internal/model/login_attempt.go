package model

import "time"

// LoginAttempt tracks brute-force state for one (email, ip_address)
// pair in the `login_attempts` table. A row appears on the first failed
// login for the pair, the counter grows on each further failure, and the
// row is deleted outright on a successful authentication. Lockout is
// deliberately scoped to the pair, not to the account as a whole, so one
// hostile origin cannot lock a user out everywhere.
//
// Fields:
//  ID             – primary key identifier.
//  Email          – identifier presented at login (username or email).
//  IPAddress      – origin address of the attempts.
//  FailedAttempts – number of consecutive failures for this pair.
//  LastAttempt    – timestamp of the most recent failure.
//  LockedUntil    – end of the lockout window (nil while unlocked).
type LoginAttempt struct {
	ID             uint64     // login_attempts.id
	Email          string     // login_attempts.email
	IPAddress      string     // login_attempts.ip_address
	FailedAttempts int        // login_attempts.failed_attempts
	LastAttempt    time.Time  // login_attempts.last_attempt
	LockedUntil    *time.Time // login_attempts.locked_until (nullable)
}
