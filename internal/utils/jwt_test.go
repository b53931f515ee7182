package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccessTokenClaims(t *testing.T) {
	at, err := NewAccessToken("secret", 42, "HR", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 2*time.Second)

	tok, err := jwt.Parse(at.Token, func(tk *jwt.Token) (interface{}, error) {
		require.IsType(t, &jwt.SigningMethodHMAC{}, tk.Method)
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "HR", claims["role"])
	assert.InDelta(t, at.Exp.Unix(), claims["exp"], 1)
}

func TestNewAccessTokenRejectsWrongSecret(t *testing.T) {
	at, err := NewAccessToken("secret", 42, "HR", 15)
	require.NoError(t, err)

	_, err = jwt.Parse(at.Token, func(*jwt.Token) (interface{}, error) {
		return []byte("other"), nil
	})
	assert.Error(t, err)
}

func TestOpaqueTokensAreUniqueAndSized(t *testing.T) {
	r1, err := NewRefreshToken(7)
	require.NoError(t, err)
	r2, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, r1.Raw, 96)
	assert.NotEqual(t, r1.Raw, r2.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), r1.Exp, 2*time.Second)

	p, err := NewResetToken(60)
	require.NoError(t, err)
	assert.Len(t, p.Raw, 64)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), p.Exp, 2*time.Second)
}

func TestHashTokenRaw(t *testing.T) {
	h := HashTokenRaw("some-token")
	assert.Len(t, h, 64) // sha256 hex
	assert.Equal(t, h, HashTokenRaw("some-token"))
	assert.NotEqual(t, h, HashTokenRaw("some-other-token"))
}
