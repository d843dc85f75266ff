package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	ts := NewTokenService("secret", time.Hour)

	token, err := ts.GenerateToken(42)
	require.NoError(t, err)

	userID, err := ts.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := NewTokenService("one", time.Hour).GenerateToken(42)
	require.NoError(t, err)

	_, err = NewTokenService("two", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	token, err := NewTokenService("secret", -time.Minute).GenerateToken(42)
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_BadClaims(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "42",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenService("secret", time.Hour).ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateToken_RejectsNonPositive(t *testing.T) {
	_, err := NewTokenService("secret", time.Hour).GenerateToken(0)
	assert.Error(t, err)
}
