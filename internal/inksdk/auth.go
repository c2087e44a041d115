package inksdk

import (
	"context"

	"github.com/imroc/req/v3"
)

const (
	v1AuthToken   = "/api/v1/auth/token"
	v1AuthRefresh = "/api/v1/auth/refresh"
)

type AuthAPI struct {
	client *req.Client
}

func newAuthAPI(client *req.Client) *AuthAPI {
	return &AuthAPI{
		client: client,
	}
}

// Token trades the site key for a fresh token pair.
func (a *AuthAPI) Token(ctx context.Context, params *TokenRequest) (*TokenResponse, error) {
	var resp TokenResponse
	res, err := a.client.R().
		SetContext(ctx).
		SetBody(params).
		SetSuccessResult(&resp).
		Post(v1AuthToken)

	if err := handleAPIError(res, err, "auth token"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh rotates a refresh token into a new pair. The old token is spent
// either way.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	var resp TokenResponse
	res, err := a.client.R().
		SetContext(ctx).
		SetBody(&RefreshRequest{RefreshToken: refreshToken}).
		SetSuccessResult(&resp).
		Post(v1AuthRefresh)

	if err := handleAPIError(res, err, "auth refresh"); err != nil {
		return nil, err
	}
	return &resp, nil
}
