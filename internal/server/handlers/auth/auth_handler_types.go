package auth

// TokenRequest trades the site key for a token pair. Email identifies the
// session, not an account; the key is the credential.
type TokenRequest struct {
	Email   string `json:"email" binding:"required"`
	SiteKey string `json:"site_key"`
}

// TokenResponse carries a freshly minted token pair.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest trades a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse is the rotated token pair.
type RefreshResponse TokenResponse
