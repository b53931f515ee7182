package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/hr-auth-service/internal/model"
	"github.com/iliyamo/hr-auth-service/internal/queue"
	"github.com/iliyamo/hr-auth-service/internal/utils"
)

const backupCodeCount = 10

// TwoFactorService manages per-user 2FA configuration and code checks.
// TOTP codes are verified against the stored secret with a ±1 time-step
// window. Email and SMS codes are dispatched through the broker and kept
// as a bcrypt hash with a short validity window on the configuration
// row; a code is accepted at most once.
type TwoFactorService struct {
	store      TwoFactorStore
	users      UserStore
	publisher  Publisher
	issuer     string
	codeTTLMin int
}

func NewTwoFactorService(store TwoFactorStore, users UserStore, publisher Publisher, issuer string, codeTTLMin int) *TwoFactorService {
	return &TwoFactorService{store: store, users: users, publisher: publisher, issuer: issuer, codeTTLMin: codeTTLMin}
}

// SetupResult is returned from Setup. Secret and ProvisioningURI are
// only present for the TOTP method.
type SetupResult struct {
	Method          string `json:"method"`
	Secret          string `json:"secret,omitempty"`
	ProvisioningURI string `json:"provisioning_uri,omitempty"`
}

// VerifyResult carries the outcome of a successful verification. The
// backup codes appear here in plaintext exactly once; afterwards only
// their hashes exist.
type VerifyResult struct {
	Verified    bool     `json:"verified"`
	BackupCodes []string `json:"backup_codes"`
}

// Setup creates or resets the user's configuration for the given
// method. Any previous secret, verification state and backup codes are
// discarded, so switching methods always forces re-verification. For
// email/SMS a first code is dispatched right away.
func (s *TwoFactorService) Setup(ctx context.Context, userID uint64, method string) (SetupResult, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return SetupResult{}, err
	}

	switch method {
	case model.TwoFactorMethodTOTP:
		key, err := totp.Generate(totp.GenerateOpts{Issuer: s.issuer, AccountName: u.Email})
		if err != nil {
			return SetupResult{}, err
		}
		if err := s.store.Replace(ctx, userID, method, key.Secret()); err != nil {
			return SetupResult{}, err
		}
		return SetupResult{Method: method, Secret: key.Secret(), ProvisioningURI: key.URL()}, nil

	case model.TwoFactorMethodEmail, model.TwoFactorMethodSMS:
		if err := s.store.Replace(ctx, userID, method, ""); err != nil {
			return SetupResult{}, err
		}
		if err := s.dispatchCode(ctx, u, method); err != nil {
			return SetupResult{}, err
		}
		return SetupResult{Method: method}, nil

	default:
		return SetupResult{}, ErrInvalidMethod
	}
}

// Verify checks a code against the user's current configuration. On the
// first success after setup the configuration becomes verified and a
// fresh set of backup codes is generated and returned.
func (s *TwoFactorService) Verify(ctx context.Context, userID uint64, code string) (VerifyResult, error) {
	cfg, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return VerifyResult{}, ErrNotConfigured
		}
		return VerifyResult{}, err
	}

	ok := false
	switch cfg.Method {
	case model.TwoFactorMethodTOTP:
		if cfg.SecretKey != "" {
			ok, _ = totp.ValidateCustom(code, cfg.SecretKey, time.Now().UTC(), totp.ValidateOpts{
				Period:    30,
				Skew:      1,
				Digits:    otp.DigitsSix,
				Algorithm: otp.AlgorithmSHA1,
			})
		}
	case model.TwoFactorMethodEmail, model.TwoFactorMethodSMS:
		ok = s.checkDispatchedCode(cfg, code)
	}
	if !ok {
		return VerifyResult{}, ErrInvalidCode
	}

	codes, hashes, err := newBackupCodes()
	if err != nil {
		return VerifyResult{}, err
	}
	if err := s.store.MarkVerified(ctx, userID, hashes); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{Verified: true, BackupCodes: codes}, nil
}

// Enable turns enforcement on. It fails with ErrNotVerified until a
// verify call succeeded for the current configuration.
func (s *TwoFactorService) Enable(ctx context.Context, userID uint64) (model.TwoFactorAuth, error) {
	cfg, err := s.get(ctx, userID)
	if err != nil {
		return model.TwoFactorAuth{}, err
	}
	if !cfg.Verified {
		return model.TwoFactorAuth{}, ErrNotVerified
	}
	if err := s.store.SetEnabled(ctx, userID, true); err != nil {
		return model.TwoFactorAuth{}, err
	}
	cfg.IsEnabled = true
	return cfg, nil
}

// Disable turns enforcement off without touching verification state, so
// re-enabling later needs no new code check.
func (s *TwoFactorService) Disable(ctx context.Context, userID uint64) (model.TwoFactorAuth, error) {
	cfg, err := s.get(ctx, userID)
	if err != nil {
		return model.TwoFactorAuth{}, err
	}
	if err := s.store.SetEnabled(ctx, userID, false); err != nil {
		return model.TwoFactorAuth{}, err
	}
	cfg.IsEnabled = false
	return cfg, nil
}

// Config returns the user's current configuration.
func (s *TwoFactorService) Config(ctx context.Context, userID uint64) (model.TwoFactorAuth, error) {
	return s.get(ctx, userID)
}

// RegenerateBackupCodes replaces the stored set and returns the new
// plaintext codes, the only time they are visible.
func (s *TwoFactorService) RegenerateBackupCodes(ctx context.Context, userID uint64) ([]string, error) {
	if _, err := s.get(ctx, userID); err != nil {
		return nil, err
	}
	codes, hashes, err := newBackupCodes()
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveBackupCodes(ctx, userID, hashes); err != nil {
		return nil, err
	}
	return codes, nil
}

// VerifyBackupCode consumes one backup code as an alternate second
// factor. A code that matches is removed from the stored set and cannot
// be presented again.
func (s *TwoFactorService) VerifyBackupCode(ctx context.Context, userID uint64, code string) error {
	cfg, err := s.get(ctx, userID)
	if err != nil {
		return err
	}
	want := utils.HashTokenRaw(code)
	for i, h := range cfg.BackupCodes {
		if h == want {
			remaining := append(append([]string{}, cfg.BackupCodes[:i]...), cfg.BackupCodes[i+1:]...)
			return s.store.SaveBackupCodes(ctx, userID, remaining)
		}
	}
	return ErrInvalidCode
}

func (s *TwoFactorService) get(ctx context.Context, userID uint64) (model.TwoFactorAuth, error) {
	cfg, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TwoFactorAuth{}, ErrNotConfigured
		}
		return model.TwoFactorAuth{}, err
	}
	return cfg, nil
}

// dispatchCode generates a 6-digit code, stores its bcrypt hash with a
// deadline and publishes the delivery event. Publishing runs detached;
// a broker failure is logged, not surfaced.
func (s *TwoFactorService) dispatchCode(ctx context.Context, u model.User, method string) error {
	code, err := randomDigits(6)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	exp := time.Now().UTC().Add(time.Duration(s.codeTTLMin) * time.Minute)
	if err := s.store.SetPendingCode(ctx, u.ID, string(hash), exp); err != nil {
		return err
	}

	channel := "email"
	if method == model.TwoFactorMethodSMS {
		channel = "sms"
	}
	ev := queue.NewNotificationEvent(queue.KindTwoFactorCode, channel, u.Email,
		"Your verification code",
		fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, s.codeTTLMin))
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.publisher.PublishNotification(pubCtx, ev); err != nil {
			log.Printf("auth: publish 2fa code for user %d: %v", u.ID, err)
		}
	}()
	return nil
}

func (s *TwoFactorService) checkDispatchedCode(cfg model.TwoFactorAuth, code string) bool {
	if cfg.PendingCodeHash == "" || cfg.PendingCodeExp == nil {
		return false
	}
	if time.Now().UTC().After(*cfg.PendingCodeExp) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(cfg.PendingCodeHash), []byte(code)) == nil
}

// newBackupCodes returns backupCodeCount random single-use codes in
// plaintext together with the SHA-256 hashes that get stored.
func newBackupCodes() (codes, hashes []string, err error) {
	codes = make([]string, backupCodeCount)
	hashes = make([]string, backupCodeCount)
	for i := range codes {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			return nil, nil, err
		}
		codes[i] = hex.EncodeToString(buf)
		hashes[i] = utils.HashTokenRaw(codes[i])
	}
	return codes, hashes, nil
}

// randomDigits returns n decimal digits from the secure random source.
func randomDigits(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + v.Int64())
	}
	return string(out), nil
}
