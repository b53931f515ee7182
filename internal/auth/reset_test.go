package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/hr-auth-service/internal/model"
	"github.com/iliyamo/hr-auth-service/internal/queue"
	"github.com/iliyamo/hr-auth-service/internal/utils"
)

func newResetFixture(t *testing.T) (*ResetService, *fakeUserStore, *fakeResetStore, *fakePublisher, model.User) {
	t.Helper()
	users := newFakeUserStore()
	store := newFakeResetStore()
	pub := newFakePublisher()
	u := users.add(model.User{Email: "alice@corp.test", Username: "alice", Role: model.RoleEmployee, IsActive: true})
	svc := NewResetService(users, store, pub, 60, bcrypt.MinCost)
	return svc, users, store, pub, u
}

// requestToken runs Request and pulls the raw token back out of the
// published notification body, the same way a user would read it from
// the email.
func requestToken(t *testing.T, svc *ResetService, pub *fakePublisher, email string) string {
	t.Helper()
	require.NoError(t, svc.Request(context.Background(), email))
	ev := pub.wait(t, 2*time.Second)
	assert.Equal(t, queue.KindPasswordReset, ev.Kind)
	assert.Equal(t, "email", ev.Channel)

	fields := strings.Fields(ev.Body)
	raw := fields[len(fields)-1]
	require.Len(t, raw, 64)
	return raw
}

func TestResetRequestPublishesToken(t *testing.T) {
	svc, _, store, pub, u := newResetFixture(t)

	raw := requestToken(t, svc, pub, "alice@corp.test")

	// Only the hash is stored.
	rec, err := store.FindByHash(context.Background(), utils.HashTokenRaw(raw))
	require.NoError(t, err)
	assert.Equal(t, u.ID, rec.UserID)
	assert.False(t, rec.Used)
}

func TestResetRequestUnknownEmailIsSilent(t *testing.T) {
	svc, _, store, pub, _ := newResetFixture(t)

	// Identical outcome to the known-email case from the caller's side:
	// nil error, nothing to distinguish. No token, no notification.
	require.NoError(t, svc.Request(context.Background(), "nobody@corp.test"))

	select {
	case ev := <-pub.events:
		t.Fatalf("unexpected notification published: %+v", ev)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, store.rows)
}

func TestResetRequestEmptyEmail(t *testing.T) {
	svc, _, _, _, _ := newResetFixture(t)
	err := svc.Request(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestResetVerifyStates(t *testing.T) {
	svc, _, store, pub, _ := newResetFixture(t)
	ctx := context.Background()

	raw := requestToken(t, svc, pub, "alice@corp.test")

	state, err := svc.Verify(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, ResetTokenState{Valid: true}, state)

	// Expired.
	store.mu.Lock()
	store.rows[utils.HashTokenRaw(raw)].ExpiresAt = time.Now().UTC().Add(-time.Minute)
	store.mu.Unlock()
	state, err = svc.Verify(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, ResetTokenState{Expired: true}, state)

	// Unknown.
	_, err = svc.Verify(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Verify(ctx, "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestResetConsumesTokenOnce(t *testing.T) {
	svc, _, store, pub, u := newResetFixture(t)
	ctx := context.Background()

	raw := requestToken(t, svc, pub, "alice@corp.test")

	require.NoError(t, svc.Reset(ctx, raw, "brand-new-password"))

	// The new hash landed and verifies against the new password.
	hash := store.passwords[u.ID]
	require.NotEmpty(t, hash)
	assert.True(t, utils.VerifyPassword(hash, "brand-new-password"))

	// Second use fails and the password is untouched.
	err := svc.Reset(ctx, raw, "another-password")
	assert.ErrorIs(t, err, ErrTokenUsed)
	assert.Equal(t, hash, store.passwords[u.ID])

	state, err := svc.Verify(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, ResetTokenState{Used: true}, state)
}

func TestResetRejectsExpiredToken(t *testing.T) {
	svc, _, store, pub, u := newResetFixture(t)
	ctx := context.Background()

	raw := requestToken(t, svc, pub, "alice@corp.test")
	store.mu.Lock()
	store.rows[utils.HashTokenRaw(raw)].ExpiresAt = time.Now().UTC().Add(-time.Minute)
	store.mu.Unlock()

	err := svc.Reset(ctx, raw, "brand-new-password")
	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Empty(t, store.passwords[u.ID])
}

func TestResetRejectsWeakPassword(t *testing.T) {
	svc, _, _, pub, _ := newResetFixture(t)
	ctx := context.Background()

	raw := requestToken(t, svc, pub, "alice@corp.test")

	err := svc.Reset(ctx, raw, "short")
	assert.ErrorIs(t, err, ErrWeakPassword)

	// The failed attempt did not burn the token.
	state, err := svc.Verify(ctx, raw)
	require.NoError(t, err)
	assert.True(t, state.Valid)
}

func TestResetUnknownToken(t *testing.T) {
	svc, _, _, _, _ := newResetFixture(t)
	err := svc.Reset(context.Background(), "never-issued", "brand-new-password")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetEachRequestIssuesFreshToken(t *testing.T) {
	svc, _, _, pub, _ := newResetFixture(t)
	ctx := context.Background()

	first := requestToken(t, svc, pub, "alice@corp.test")
	second := requestToken(t, svc, pub, "alice@corp.test")
	require.NotEqual(t, first, second)

	// Consuming the newer token leaves the older one intact; each is
	// still single-use on its own.
	require.NoError(t, svc.Reset(ctx, second, "brand-new-password"))
	state, err := svc.Verify(ctx, first)
	require.NoError(t, err)
	assert.True(t, state.Valid)
}
