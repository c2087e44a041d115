package inksdk

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, tokenType TokenType, expiresAt time.Time) string {
	t.Helper()
	claims := &AuthClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "jo@example.com",
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tokenStr
}

func TestParseToken_TypeAndExpiry(t *testing.T) {
	now := time.Now()
	tokenStr := signedToken(t, AccessToken, now.Add(10*time.Minute))

	parsed, err := ParseToken(tokenStr, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, AccessToken, parsed.Type)
	assert.Equal(t, "jo@example.com", parsed.Subject)

	_, err = ParseToken(tokenStr, RefreshToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token type")

	expiredStr := signedToken(t, RefreshToken, now.Add(-10*time.Minute))
	_, err = ParseToken(expiredStr, RefreshToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := ParseToken("not.a.token", AccessToken)
	assert.Error(t, err)
}

func TestAuthRefresh_RequiresToken(t *testing.T) {
	sdk, err := New(&Config{BaseURL: "http://127.0.0.1:8080", Email: "jo@example.com"})
	require.NoError(t, err)
	defer sdk.Close()

	_, err = sdk.Auth.Refresh(t.Context(), "")
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}
