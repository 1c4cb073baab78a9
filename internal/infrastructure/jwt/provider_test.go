package jwtinfra

import (
	"errors"
	"testing"
	"time"

	"github.com/cashflow-api/internal/config"
	"github.com/cashflow-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, secret string) *Provider {
	t.Helper()
	p, err := NewProvider(&config.Config{
		JWTSecret:        secret,
		JWTExpiry:        24 * time.Hour,
		ResetTokenExpiry: time.Hour,
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_EmptySecret(t *testing.T) {
	_, err := NewProvider(&config.Config{})
	assert.Error(t, err)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	p := newTestProvider(t, "secret")
	tok, err := p.Sign("u1", "a@x.com")
	require.NoError(t, err)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, PurposeAccess, claims.Purpose)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestSignReset_OneHour(t *testing.T) {
	p := newTestProvider(t, "secret")
	tok, exp, err := p.SignReset("u1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := p.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, PurposeReset, claims.Purpose)
}

func TestVerify_Expired(t *testing.T) {
	p := newTestProvider(t, "secret")
	p.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	tok, err := p.Sign("u1", "a@x.com")
	require.NoError(t, err)

	p.now = time.Now
	_, err = p.Verify(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrTokenExpired))
	assert.False(t, errors.Is(err, domain.ErrInvalidToken))
}

func TestVerify_WrongSecret(t *testing.T) {
	tok, err := newTestProvider(t, "one").Sign("u1", "a@x.com")
	require.NoError(t, err)

	_, err = newTestProvider(t, "two").Verify(tok)
	assert.True(t, errors.Is(err, domain.ErrInvalidToken))
}

func TestVerify_Malformed(t *testing.T) {
	_, err := newTestProvider(t, "secret").Verify("not-a-jwt")
	assert.True(t, errors.Is(err, domain.ErrInvalidToken))
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		UserID:  "u1",
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestProvider(t, "secret").Verify(tok)
	assert.True(t, errors.Is(err, domain.ErrInvalidToken))
}
