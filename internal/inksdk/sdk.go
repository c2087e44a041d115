// Package inksdk is the Go client for the inkpress server API. It wraps the
// auth, sync, content and site route families behind one configured HTTP
// client.
package inksdk

import (
	"log/slog"
	"time"

	"github.com/imroc/req/v3"

	"github.com/inkpress/inkpress/internal/version"
)

const (
	HeaderClientVersion = "X-Inkpress-Version"
)

// InkSDK is the main client for the inkpress API.
type InkSDK struct {
	client *req.Client
	config *Config

	Auth    *AuthAPI
	Sync    *SyncAPI
	Content *ContentAPI
	Site    *SiteAPI
}

// New builds an SDK client from config. Tokens already present in the config
// are applied immediately; otherwise call Auth.Token and SetAccessToken.
func New(config *Config) (*InkSDK, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("sdk: init", "config", config)

	client := req.C().
		SetBaseURL(config.BaseURL).
		SetUserAgent("InkPress/"+version.Version).
		SetCommonHeader(HeaderClientVersion, version.Version).
		SetTimeout(2*time.Minute).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal).
		SetCommonErrorResult(&APIError{}).
		SetCommonRetryCount(3).
		SetCommonRetryBackoffInterval(1*time.Second, 5*time.Second).
		SetCommonRetryCondition(func(resp *req.Response, err error) bool {
			// network errors and server faults only; 4xx (including a
			// 409 sync-in-progress) must surface to the caller
			return err != nil || resp.StatusCode >= 500
		})

	if config.AccessToken != "" {
		client.SetCommonBearerAuthToken(config.AccessToken)
	}

	return &InkSDK{
		client:  client,
		config:  config,
		Auth:    newAuthAPI(client),
		Sync:    newSyncAPI(client),
		Content: newContentAPI(client),
		Site:    newSiteAPI(client),
	}, nil
}

// SetAccessToken applies a bearer token to every subsequent request.
func (s *InkSDK) SetAccessToken(token string) {
	s.config.AccessToken = token
	s.client.SetCommonBearerAuthToken(token)
}

// Close releases idle connections.
func (s *InkSDK) Close() {
	s.client.CloseIdleConnections()
}
