package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints for
// durations, thresholds and costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMaxConns     int    // connection pool size shared by all repositories
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	TOTPIssuer     string // issuer name embedded in TOTP provisioning URIs

	// Brute-force lockout and token-lifecycle knobs. Optional; the
	// defaults match the account-security policy of the HR backend
	// (5 failures lock a pair for 15 minutes, reset links live 1 hour,
	// dispatched 2FA codes live 10 minutes).
	LockoutMaxFailures int // failed logins per (email, ip) before locking
	LockoutWindowMin   int // lockout duration in minutes
	ResetTokenTTLMin   int // password-reset token time-to-live in minutes
	TwoFactorCodeTTLMin int // dispatched email/SMS code time-to-live in minutes
}

// Load reads configuration values from environment variables and returns
// a Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMaxConns:     envInt("DB_MAX_CONNS", 25),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		TOTPIssuer:     envStr("TOTP_ISSUER", "WeHR"),

		LockoutMaxFailures:  envInt("LOCKOUT_MAX_FAILURES", 5),
		LockoutWindowMin:    envInt("LOCKOUT_WINDOW_MIN", 15),
		ResetTokenTTLMin:    envInt("RESET_TOKEN_TTL_MIN", 60),
		TwoFactorCodeTTLMin: envInt("TWO_FACTOR_CODE_TTL_MIN", 10),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
