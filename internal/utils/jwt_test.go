package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	pair, err := GenerateTokenPair("phone:+919847012345", "citizen", "+919847012345", testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := ValidateToken(pair.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "phone:+919847012345", claims.UserID)
	assert.Equal(t, "citizen", claims.UserType)
	assert.Equal(t, "+919847012345", claims.Phone)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	pair, err := GenerateTokenPair("user-1", "responder", "", testSecret)
	require.NoError(t, err)

	_, err = ValidateToken(pair.AccessToken, "other-secret")
	assert.Error(t, err)
}

func TestRefreshAccessToken(t *testing.T) {
	pair, err := GenerateTokenPair("user-1", "responder", "", testSecret)
	require.NoError(t, err)

	refreshed, err := RefreshAccessToken(pair.RefreshToken, testSecret)
	require.NoError(t, err)

	claims, err := ValidateToken(refreshed.AccessToken, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestShadowUserID(t *testing.T) {
	assert.Equal(t, "phone:+919847012345", ShadowUserID("+91 98470 12345"))
	assert.Equal(t, "phone:+919847012345", ShadowUserID("91-98470-12345"))
}

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("+919847012345"))
	assert.True(t, IsValidPhone("+1 (415) 555-2671"))
	assert.False(t, IsValidPhone("hello"))
	assert.False(t, IsValidPhone("+0123"))
}
