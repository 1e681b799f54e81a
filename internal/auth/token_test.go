package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)
	userID := uuid.New()

	raw, err := m.Issue(userID, "12345@veltech.edu.in", []string{"STUDENT"})
	require.NoError(t, err)

	claims, err := m.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "12345@veltech.edu.in", claims.Email)
	assert.Equal(t, []string{"STUDENT"}, claims.Roles)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer, err := NewTokenManager("secret-a", time.Hour)
	require.NoError(t, err)
	verifier, err := NewTokenManager("secret-b", time.Hour)
	require.NoError(t, err)

	raw, err := issuer.Issue(uuid.New(), "x@veltech.edu.in", nil)
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	assert.Error(t, err)
}

func TestTokenRejectsExpired(t *testing.T) {
	m, err := NewTokenManager("test-secret", time.Nanosecond)
	require.NoError(t, err)

	raw, err := m.Issue(uuid.New(), "x@veltech.edu.in", nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = m.Verify(raw)
	assert.Error(t, err)
}

func TestTokenManagerRequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)
}
