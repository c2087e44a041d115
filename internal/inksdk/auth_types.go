package inksdk

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

type TokenRequest struct {
	Email   string `json:"email"`
	SiteKey string `json:"site_key"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthClaims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

// ParseToken decodes claims without verifying the signature (only the server
// holds the secret) and checks type and expiry. Useful for deciding when to
// refresh, never for trusting a token.
func ParseToken(tokenString string, want TokenType) (*AuthClaims, error) {
	claims := &AuthClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.Type != want {
		return nil, fmt.Errorf("invalid token type: want %q, got %q", want, claims.Type)
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("token expired at %s", claims.ExpiresAt)
	}
	return claims, nil
}
