package model

import "time"

// LoginHistory is an append-only record of login attempts in the
// `login_history` table, one row per attempt whether it succeeded or
// not. It is informational: nothing in the auth flow reads it to make a
// security decision. LogoutTime is filled in on explicit logout of the
// most recent open session.
//
// Fields:
//  ID            – primary key identifier.
//  UserID        – user the attempt was made for.
//  IPAddress     – origin address of the attempt.
//  UserAgent     – raw User-Agent header value.
//  DeviceType    – best-effort device classification (desktop/mobile/…).
//  Browser       – best-effort browser name.
//  LoginTime     – when the attempt happened.
//  LogoutTime    – when the session was explicitly closed (nullable).
//  IsSuccessful  – whether the attempt produced a session.
//  FailureReason – short reason string for failed attempts.
type LoginHistory struct {
	ID            uint64     // login_history.id
	UserID        uint64     // login_history.user_id
	IPAddress     string     // login_history.ip_address
	UserAgent     string     // login_history.user_agent
	DeviceType    string     // login_history.device_type
	Browser       string     // login_history.browser
	LoginTime     time.Time  // login_history.login_time
	LogoutTime    *time.Time // login_history.logout_time (nullable)
	IsSuccessful  bool       // login_history.is_successful
	FailureReason string     // login_history.failure_reason
}
