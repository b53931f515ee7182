package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 hashing for opaque tokens at rest
	"encoding/hex"  // hex encoding for token strings and digests
	"time"          // expiration arithmetic

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived, self-contained and verified by signature
// plus expiry alone; no storage lookup is involved.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// OpaqueToken is a long-lived random credential returned to the client in
// raw form. Only its SHA-256 hash is persisted, so a leaked database copy
// cannot be replayed. Both refresh tokens and password-reset tokens use
// this shape.
type OpaqueToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The claims are
// the standard set used across the service: subject (sub), role, expiry
// (exp) and issued-at (iat). TTL is given in minutes.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw)
// and its expiration time. Refresh tokens live longer than access tokens
// and are used solely to mint new access tokens. The ttlDays parameter
// controls how many days the token stays valid.
func NewRefreshToken(ttlDays int) (OpaqueToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return OpaqueToken{}, err
	}
	return OpaqueToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// NewResetToken returns a random single-use password-reset token and its
// expiration time. TTL is given in minutes; reset tokens are deliberately
// short-lived.
func NewResetToken(ttlMin int) (OpaqueToken, error) {
	raw, err := randomHex(32) // 32 bytes -> 64 hex chars
	if err != nil {
		return OpaqueToken{}, err
	}
	return OpaqueToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute),
	}, nil
}

// HashTokenRaw returns the SHA-256 hash of a raw opaque token as a hex
// string. Storing only the hash prevents attackers from using stolen
// database entries to hijack sessions or consume reset tokens.
func HashTokenRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
