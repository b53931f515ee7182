package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/hr-auth-service/internal/queue"
	"github.com/iliyamo/hr-auth-service/internal/repository"
	"github.com/iliyamo/hr-auth-service/internal/utils"
)

// ResetService implements the password-reset token lifecycle: issue a
// single-use, time-boxed token, verify it, and consume it together with
// the password update.
type ResetService struct {
	users      UserStore
	tokens     ResetStore
	publisher  Publisher
	ttlMin     int
	bcryptCost int
}

func NewResetService(users UserStore, tokens ResetStore, publisher Publisher, ttlMin, bcryptCost int) *ResetService {
	return &ResetService{users: users, tokens: tokens, publisher: publisher, ttlMin: ttlMin, bcryptCost: bcryptCost}
}

// ResetTokenState is the answer to a verify call.
type ResetTokenState struct {
	Valid   bool `json:"valid"`
	Expired bool `json:"expired"`
	Used    bool `json:"used"`
}

// Request issues a reset token for the account behind email and hands
// the notification off to the broker. When the email is unknown it does
// nothing and still succeeds: the caller-visible outcome is identical
// either way, so responses cannot be used to probe registered addresses.
func (s *ResetService) Request(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ErrMissingCredentials
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return err
	}

	tok, err := utils.NewResetToken(s.ttlMin)
	if err != nil {
		return err
	}
	if err := s.tokens.Create(ctx, u.ID, utils.HashTokenRaw(tok.Raw), tok.Exp); err != nil {
		return err
	}

	// Delivery must not block or fail the request; the publisher runs
	// detached and any error is logged and dropped.
	ev := queue.NewNotificationEvent(queue.KindPasswordReset, "email", u.Email,
		"Password reset",
		fmt.Sprintf("A password reset was requested for your account. Use this token within %d minutes: %s", s.ttlMin, tok.Raw))
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.publisher.PublishNotification(pubCtx, ev); err != nil {
			log.Printf("auth: publish reset notification for user %d: %v", u.ID, err)
		}
	}()
	return nil
}

// Verify reports the state of a reset token without consuming it.
// Unknown tokens fail with ErrInvalidToken.
func (s *ResetService) Verify(ctx context.Context, raw string) (ResetTokenState, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ResetTokenState{}, ErrMissingCredentials
	}
	rec, err := s.tokens.FindByHash(ctx, utils.HashTokenRaw(raw))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResetTokenState{}, ErrInvalidToken
		}
		return ResetTokenState{}, err
	}
	expired := time.Now().UTC().After(rec.ExpiresAt)
	return ResetTokenState{
		Valid:   !rec.Used && !expired,
		Expired: expired,
		Used:    rec.Used,
	}, nil
}

// Reset consumes the token and applies the new password. Consumption and
// the password write share one transaction in the store, and the store's
// used-flag guard decides races: of two concurrent calls with the same
// token exactly one succeeds, the other fails with ErrTokenUsed.
func (s *ResetService) Reset(ctx context.Context, raw, newPassword string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ErrMissingCredentials
	}

	rec, err := s.tokens.FindByHash(ctx, utils.HashTokenRaw(raw))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		return err
	}
	if rec.Used {
		return ErrTokenUsed
	}
	if time.Now().UTC().After(rec.ExpiresAt) {
		return ErrExpiredToken
	}
	if len(newPassword) < MinPasswordLen {
		return ErrWeakPassword
	}

	hash, err := utils.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.tokens.Consume(ctx, rec.ID, rec.UserID, hash); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return ErrTokenUsed
		}
		return err
	}
	return nil
}
