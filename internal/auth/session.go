package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/model"
	"github.com/iliyamo/hr-auth-service/internal/utils"
)

// Credentials is what a login attempt arrives with. Identifier may be a
// username or an email address; Origin is the client network address
// used to scope lockout tracking; UserAgent feeds the audit trail only.
type Credentials struct {
	Identifier string
	Password   string
	Origin     string
	UserAgent  string
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	Role      string
	FirstName string
	LastName  string
	Origin    string
	UserAgent string
}

// Session is the result of a successful login or registration.
type Session struct {
	User    model.User
	Access  utils.AccessToken
	Refresh utils.OpaqueToken
}

// SessionService is the entry point composing the auth core: it checks
// the lockout state, verifies credentials, issues tokens, records
// history and exposes logout and refresh.
type SessionService struct {
	users      UserStore
	lockout    *LockoutTracker
	tokens     *TokenService
	history    HistoryStore
	bcryptCost int
}

func NewSessionService(users UserStore, lockout *LockoutTracker, tokens *TokenService, history HistoryStore, bcryptCost int) *SessionService {
	return &SessionService{
		users:      users,
		lockout:    lockout,
		tokens:     tokens,
		history:    history,
		bcryptCost: bcryptCost,
	}
}

// Login runs the full state machine: input validation, lockout check,
// credential verification, active-account check, then token issuance
// with its success side effects. The lockout check comes first, so a
// correct password presented during an active lockout is still rejected
// and does not clear the window.
func (s *SessionService) Login(ctx context.Context, creds Credentials) (Session, error) {
	identifier := strings.TrimSpace(creds.Identifier)
	if identifier == "" || creds.Password == "" {
		return Session{}, ErrMissingCredentials
	}

	locked, remaining, err := s.lockout.IsLocked(ctx, identifier, creds.Origin)
	if err != nil {
		return Session{}, err
	}
	if locked {
		return Session{}, &LockedError{Remaining: remaining}
	}

	u, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Unknown identifier counts against the pair like any other
			// failure. No history row: there is no user to attach it to.
			if rerr := s.lockout.RecordFailure(ctx, identifier, creds.Origin); rerr != nil {
				log.Printf("auth: record failure for %q: %v", identifier, rerr)
			}
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	if !utils.VerifyPassword(u.PasswordHash, creds.Password) {
		if rerr := s.lockout.RecordFailure(ctx, identifier, creds.Origin); rerr != nil {
			log.Printf("auth: record failure for %q: %v", identifier, rerr)
		}
		s.record(ctx, u.ID, creds, false, "invalid credentials")
		return Session{}, ErrInvalidCredentials
	}

	if !u.IsActive {
		s.record(ctx, u.ID, creds, false, "account disabled")
		return Session{}, ErrAccountDisabled
	}

	access, refresh, err := s.tokens.Issue(ctx, u)
	if err != nil {
		return Session{}, err
	}
	s.record(ctx, u.ID, creds, true, "")
	if err := s.lockout.Clear(ctx, identifier, creds.Origin); err != nil {
		log.Printf("auth: clear lockout for %q: %v", identifier, err)
	}
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

// Register creates the account and immediately opens an authenticated
// session: tokens issued, history recorded. There is no verification
// gate between registration and first session.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if in.Email == "" || in.Username == "" || in.Password == "" {
		return Session{}, ErrMissingCredentials
	}
	if len(in.Password) < MinPasswordLen {
		return Session{}, ErrWeakPassword
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	if role != model.RoleAdmin && role != model.RoleHR {
		role = model.RoleEmployee
	}

	uid, err := s.users.Create(ctx, in.Email, in.Username, in.Password, role, in.FirstName, in.LastName, s.bcryptCost)
	if err != nil {
		return Session{}, err
	}
	u, err := s.users.GetByID(ctx, uid)
	if err != nil {
		return Session{}, err
	}

	access, refresh, err := s.tokens.Issue(ctx, u)
	if err != nil {
		return Session{}, err
	}
	s.record(ctx, u.ID, Credentials{Origin: in.Origin, UserAgent: in.UserAgent}, true, "")
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

// Logout revokes the presented refresh token, if any, and closes the
// caller's most recent open history row when the caller is known. Both
// halves are idempotent: a missing or already-revoked token and an
// absent open session are not errors.
func (s *SessionService) Logout(ctx context.Context, rawRefresh string, userID uint64) error {
	if err := s.tokens.Revoke(ctx, rawRefresh); err != nil {
		return err
	}
	if userID != 0 {
		if err := s.history.CloseLatestOpen(ctx, userID, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

// Refresh delegates to the token service.
func (s *SessionService) Refresh(ctx context.Context, rawRefresh string) (utils.AccessToken, error) {
	return s.tokens.RenewAccess(ctx, rawRefresh)
}

// RevokeAll ends every session of the user at once by revoking all
// refresh tokens, then closes the open history row. Meant for the
// "log out everywhere" action after a credential compromise.
func (s *SessionService) RevokeAll(ctx context.Context, userID uint64) error {
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return err
	}
	return s.history.CloseLatestOpen(ctx, userID, time.Now().UTC())
}

// Tokens returns the user's refresh-token grants, newest first,
// revoked ones included.
func (s *SessionService) Tokens(ctx context.Context, userID uint64) ([]model.RefreshToken, error) {
	return s.tokens.ListByUser(ctx, userID)
}

// History returns the caller's recent login records, newest first.
func (s *SessionService) History(ctx context.Context, userID uint64, limit int) ([]model.LoginHistory, error) {
	return s.history.ListByUser(ctx, userID, limit)
}

// record appends one audit row. History is informational, so failures
// are logged and never bubble into the login result.
func (s *SessionService) record(ctx context.Context, userID uint64, creds Credentials, ok bool, reason string) {
	deviceType, browser := utils.ClassifyUserAgent(creds.UserAgent)
	err := s.history.Record(ctx, model.LoginHistory{
		UserID:        userID,
		IPAddress:     creds.Origin,
		UserAgent:     creds.UserAgent,
		DeviceType:    deviceType,
		Browser:       browser,
		IsSuccessful:  ok,
		FailureReason: reason,
	})
	if err != nil {
		log.Printf("auth: record login history for user %d: %v", userID, err)
	}
}
