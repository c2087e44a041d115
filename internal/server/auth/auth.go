// Package auth issues and validates the JWT pairs guarding the sync and
// content endpoints. Credentials are deliberately simple for a single-owner
// platform: whoever holds the site key gets a session.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const verifiedCacheSize = 256

type AuthService struct {
	config *Config

	// verified caches validated access tokens keyed by the raw token
	// string. Hits re-check the expiry claim before the claims are
	// trusted.
	verified *expirable.LRU[string, *Claims]
}

func NewAuthService(config *Config) *AuthService {
	return &AuthService{
		config:   config,
		verified: expirable.NewLRU[string, *Claims](verifiedCacheSize, nil, config.AccessTokenExpiry),
	}
}

func (s *AuthService) IsEnabled() bool {
	return s.config.Enabled
}

// GenerateTokens exchanges the site key for an access/refresh token pair.
// The email becomes the token subject and labels the session.
func (s *AuthService) GenerateTokens(ctx context.Context, userEmail string, siteKey string) (string, string, error) {
	if !s.IsEnabled() {
		slog.Debug("auth is disabled, will not generate tokens")
		return "", "", nil
	}

	if !validEmail(userEmail) {
		return "", "", ErrInvalidEmail
	}

	if subtle.ConstantTimeCompare([]byte(siteKey), []byte(s.config.SiteKey)) != 1 {
		return "", "", ErrInvalidSiteKey
	}

	accessToken, refreshToken, err := generateTokenPair(userEmail, s.config)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token pair: %w", err)
	}

	return accessToken, refreshToken, nil
}

// RefreshToken rotates a refresh token into a fresh pair.
func (s *AuthService) RefreshToken(ctx context.Context, oldRefreshToken string) (string, string, error) {
	if oldRefreshToken == "" {
		return "", "", ErrInvalidRequestToken
	}

	claims, err := s.ValidateRefreshToken(ctx, oldRefreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to refresh token pair: %w", err)
	}

	accessToken, refreshToken, err := generateTokenPair(claims.Subject, s.config)
	if err != nil {
		return "", "", fmt.Errorf("failed to refresh token pair: %w", err)
	}

	return accessToken, refreshToken, nil
}

func (s *AuthService) ValidateAccessToken(ctx context.Context, accessToken string) (*Claims, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("invalid access token")
	}

	if claims, ok := s.verified.Get(accessToken); ok {
		if claims.ExpiresAt != nil && time.Now().Before(claims.ExpiresAt.Time) {
			return claims, nil
		}
		s.verified.Remove(accessToken)
	}

	claims, err := ParseClaims(accessToken, s.config.AccessTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Type != AccessToken {
		return nil, fmt.Errorf("%w: wrong token type %q", ErrInvalidToken, claims.Type)
	}

	s.verified.Add(accessToken, claims)
	return claims, nil
}

func (s *AuthService) ValidateRefreshToken(ctx context.Context, refreshToken string) (*Claims, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("invalid refresh token")
	}

	claims, err := ParseClaims(refreshToken, s.config.RefreshTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Type != RefreshToken {
		return nil, fmt.Errorf("%w: wrong token type %q", ErrInvalidToken, claims.Type)
	}

	return claims, nil
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}
