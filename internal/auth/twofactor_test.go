package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hr-auth-service/internal/model"
	"github.com/iliyamo/hr-auth-service/internal/queue"
)

func newTwoFactorFixture(t *testing.T) (*TwoFactorService, *fakeTwoFactorStore, *fakePublisher, model.User) {
	t.Helper()
	users := newFakeUserStore()
	store := newFakeTwoFactorStore()
	pub := newFakePublisher()
	u := users.add(model.User{Email: "alice@corp.test", Username: "alice", Role: model.RoleEmployee, IsActive: true})
	svc := NewTwoFactorService(store, users, pub, "WeHR", 10)
	return svc, store, pub, u
}

// dispatchedCode extracts the 6-digit code from the published
// notification body.
func dispatchedCode(t *testing.T, pub *fakePublisher) string {
	t.Helper()
	ev := pub.wait(t, 2*time.Second)
	assert.Equal(t, queue.KindTwoFactorCode, ev.Kind)
	for _, f := range strings.Fields(ev.Body) {
		f = strings.TrimSuffix(f, ".")
		if len(f) == 6 && strings.Trim(f, "0123456789") == "" {
			return f
		}
	}
	t.Fatalf("no code found in notification body %q", ev.Body)
	return ""
}

func TestTOTPSetupVerifyEnable(t *testing.T) {
	svc, store, _, u := newTwoFactorFixture(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, u.ID, model.TwoFactorMethodTOTP)
	require.NoError(t, err)
	assert.Equal(t, model.TwoFactorMethodTOTP, res.Method)
	assert.NotEmpty(t, res.Secret)
	assert.Contains(t, res.ProvisioningURI, "otpauth://totp/")
	assert.Contains(t, res.ProvisioningURI, "WeHR")

	// Enable before verification is refused.
	_, err = svc.Enable(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotVerified)

	// A wrong code does not verify.
	_, err = svc.Verify(ctx, u.ID, "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)

	code, err := totp.GenerateCode(res.Secret, time.Now().UTC())
	require.NoError(t, err)

	vr, err := svc.Verify(ctx, u.ID, code)
	require.NoError(t, err)
	assert.True(t, vr.Verified)
	assert.Len(t, vr.BackupCodes, backupCodeCount)

	cfg, err := svc.Enable(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled)
	require.NotNil(t, store.rows[u.ID].VerifiedAt)
}

func TestTOTPAcceptsAdjacentTimeStep(t *testing.T) {
	svc, _, _, u := newTwoFactorFixture(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, u.ID, model.TwoFactorMethodTOTP)
	require.NoError(t, err)

	// A code from the previous 30s step is inside the allowed skew.
	code, err := totp.GenerateCode(res.Secret, time.Now().UTC().Add(-30*time.Second))
	require.NoError(t, err)

	vr, err := svc.Verify(ctx, u.ID, code)
	require.NoError(t, err)
	assert.True(t, vr.Verified)
}

func TestSetupResetsVerification(t *testing.T) {
	svc, _, _, u := newTwoFactorFixture(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, u.ID, model.TwoFactorMethodTOTP)
	require.NoError(t, err)
	code, err := totp.GenerateCode(res.Secret, time.Now().UTC())
	require.NoError(t, err)
	_, err = svc.Verify(ctx, u.ID, code)
	require.NoError(t, err)
	_, err = svc.Enable(ctx, u.ID)
	require.NoError(t, err)

	// Re-running setup discards the old secret and all trust in it.
	res2, err := svc.Setup(ctx, u.ID, model.TwoFactorMethodTOTP)
	require.NoError(t, err)
	assert.NotEqual(t, res.Secret, res2.Secret)

	cfg, err := svc.Config(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, cfg.Verified)
	assert.False(t, cfg.IsEnabled)
	assert.Empty(t, cfg.BackupCodes)

	_, err = svc.Enable(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestEmailCodeDispatchAndVerify(t *testing.T) {
	svc, store, pub, u := newTwoFactorFixture(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, u.ID, model.TwoFactorMethodEmail)
	require.NoError(t, err)
	assert.Equal(t, model.TwoFactorMethodEmail, res.Method)
	assert.Empty(t, res.Secret)

	code := dispatchedCode(t, pub)

	// Only a hash of the code is at rest.
	require.NotEmpty(t, store.rows[u.ID].PendingCodeHash)
	assert.NotContains(t, store.rows[u.ID].PendingCodeHash, code)

	vr, err := svc.Verify(ctx, u.ID, code)
	require.NoError(t, err)
	assert.True(t, vr.Verified)
	assert.Len(t, vr.BackupCodes, backupCodeCount)

	// The pending code is cleared on success, so it cannot be replayed.
	_, err = svc.Verify(ctx, u.ID, code)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestSMSCodeUsesSMSChannel(t *testing.T) {
	svc, _, pub, u := newTwoFactorFixture(t)

	_, err := svc.Setup(context.Background(), u.ID, model.TwoFactorMethodSMS)
	require.NoError(t, err)

	ev := pub.wait(t, 2*time.Second)
	assert.Equal(t, "sms", ev.Channel)
}

func TestEmailCodeExpires(t *testing.T) {
	svc, store, pub, u := newTwoFactorFixture(t)
	ctx := context.Background()

	_, err := svc.Setup(ctx, u.ID, model.TwoFactorMethodEmail)
	require.NoError(t, err)
	code := dispatchedCode(t, pub)

	past := time.Now().UTC().Add(-time.Minute)
	store.mu.Lock()
	store.rows[u.ID].PendingCodeExp = &past
	store.mu.Unlock()

	_, err = svc.Verify(ctx, u.ID, code)
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyWithoutSetup(t *testing.T) {
	svc, _, _, u := newTwoFactorFixture(t)
	_, err := svc.Verify(context.Background(), u.ID, "123456")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSetupRejectsUnknownMethod(t *testing.T) {
	svc, _, _, u := newTwoFactorFixture(t)
	_, err := svc.Setup(context.Background(), u.ID, "carrier-pigeon")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestBackupCodeSingleUse(t *testing.T) {
	svc, _, _, u := newTwoFactorFixture(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, u.ID, model.TwoFactorMethodTOTP)
	require.NoError(t, err)
	code, err := totp.GenerateCode(res.Secret, time.Now().UTC())
	require.NoError(t, err)
	vr, err := svc.Verify(ctx, u.ID, code)
	require.NoError(t, err)

	backup := vr.BackupCodes[0]
	require.NoError(t, svc.VerifyBackupCode(ctx, u.ID, backup))

	// Consumed: the same code is refused, the rest still work.
	err = svc.VerifyBackupCode(ctx, u.ID, backup)
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.NoError(t, svc.VerifyBackupCode(ctx, u.ID, vr.BackupCodes[1]))

	cfg, err := svc.Config(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, cfg.BackupCodes, backupCodeCount-2)
}

func TestRegenerateBackupCodesReplacesSet(t *testing.T) {
	svc, _, _, u := newTwoFactorFixture(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, u.ID, model.TwoFactorMethodTOTP)
	require.NoError(t, err)
	code, err := totp.GenerateCode(res.Secret, time.Now().UTC())
	require.NoError(t, err)
	vr, err := svc.Verify(ctx, u.ID, code)
	require.NoError(t, err)

	fresh, err := svc.RegenerateBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, fresh, backupCodeCount)

	// Old codes died with the regeneration.
	err = svc.VerifyBackupCode(ctx, u.ID, vr.BackupCodes[0])
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.NoError(t, svc.VerifyBackupCode(ctx, u.ID, fresh[0]))
}

func TestDisableKeepsVerification(t *testing.T) {
	svc, _, _, u := newTwoFactorFixture(t)
	ctx := context.Background()

	res, err := svc.Setup(ctx, u.ID, model.TwoFactorMethodTOTP)
	require.NoError(t, err)
	code, err := totp.GenerateCode(res.Secret, time.Now().UTC())
	require.NoError(t, err)
	_, err = svc.Verify(ctx, u.ID, code)
	require.NoError(t, err)
	_, err = svc.Enable(ctx, u.ID)
	require.NoError(t, err)

	cfg, err := svc.Disable(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, cfg.IsEnabled)
	assert.True(t, cfg.Verified)

	// Re-enabling needs no fresh code.
	cfg, err = svc.Enable(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, cfg.IsEnabled)
}

func TestConfigNotFound(t *testing.T) {
	svc, _, _, u := newTwoFactorFixture(t)
	_, err := svc.Config(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
