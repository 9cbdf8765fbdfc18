package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	m := NewTokenManager("test-secret", "social-service", time.Hour)

	raw, err := m.Issue("user-1")
	require.NoError(t, err)

	claims, err := m.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestParseExpiredToken(t *testing.T) {
	m := NewTokenManager("test-secret", "social-service", -time.Minute)

	raw, err := m.Issue("user-1")
	require.NoError(t, err)

	_, err = m.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", "social-service", time.Hour)
	verifier := NewTokenManager("secret-b", "social-service", time.Hour)

	raw, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseWrongIssuer(t *testing.T) {
	issuer := NewTokenManager("test-secret", "someone-else", time.Hour)
	verifier := NewTokenManager("test-secret", "social-service", time.Hour)

	raw, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = verifier.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	m := NewTokenManager("test-secret", "social-service", time.Hour)
	_, err := m.Parse("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
