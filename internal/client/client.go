// Package client ties one workspace to its server. It owns the config, the
// SDK session and the sync manager, and runs the login handshake.
package client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/inkpress/inkpress/internal/client/config"
	"github.com/inkpress/inkpress/internal/client/sync"
	"github.com/inkpress/inkpress/internal/client/workspace"
	"github.com/inkpress/inkpress/internal/inksdk"
)

type Client struct {
	config *config.Config
	sdk    *inksdk.InkSDK
	ws     *workspace.Workspace
	sync   *sync.Manager
}

func New(cfg *config.Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ws, err := workspace.NewWorkspace(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	sdk, err := inksdk.New(&inksdk.Config{
		BaseURL:      cfg.ServerURL,
		Email:        cfg.Email,
		SiteKey:      cfg.SiteKey,
		RefreshToken: cfg.RefreshToken,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sdk: %w", err)
	}

	syncMgr, err := sync.NewManager(ws, sdk)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync manager: %w", err)
	}

	return &Client{
		config: cfg,
		sdk:    sdk,
		ws:     ws,
		sync:   syncMgr,
	}, nil
}

// Connect claims the workspace and opens the session with the server.
func (c *Client) Connect(ctx context.Context) error {
	slog.Info("client connect", "workspace", c.ws.Root, "email", c.config.Email, "server", c.config.ServerURL)

	if err := c.ws.Setup(); err != nil {
		return fmt.Errorf("failed to set up workspace: %w", err)
	}

	if err := c.login(ctx); err != nil {
		return fmt.Errorf("failed to login: %w", err)
	}

	return nil
}

// Login opens the session without claiming the workspace. Read-only
// commands use it so a running watch daemon keeps its lock.
func (c *Client) Login(ctx context.Context) error {
	return c.login(ctx)
}

// login opens a session, preferring the stored refresh token over the site
// key so the key itself is needed only on first contact.
func (c *Client) login(ctx context.Context) error {
	if c.config.RefreshToken != "" {
		tokens, err := c.sdk.Auth.Refresh(ctx, c.config.RefreshToken)
		if err == nil {
			c.applyTokens(tokens)
			return nil
		}
		slog.Warn("session refresh failed, falling back to site key", "error", err)
	}

	tokens, err := c.sdk.Auth.Token(ctx, &inksdk.TokenRequest{
		Email:   c.config.Email,
		SiteKey: c.config.SiteKey,
	})
	if err != nil {
		return err
	}

	c.applyTokens(tokens)
	return nil
}

func (c *Client) applyTokens(tokens *inksdk.TokenResponse) {
	if tokens.AccessToken == "" {
		// the server runs with auth disabled, requests go out bare
		slog.Debug("server issued no tokens, auth disabled")
		return
	}

	c.sdk.SetAccessToken(tokens.AccessToken)
	if tokens.RefreshToken != "" && tokens.RefreshToken != c.config.RefreshToken {
		c.updateRefreshToken(tokens.RefreshToken)
	}
}

// updateRefreshToken persists a rotated refresh token so the next run can
// log in without the site key.
func (c *Client) updateRefreshToken(token string) {
	c.config.RefreshToken = token
	if err := c.config.Save(); err != nil {
		slog.Warn("failed to persist refresh token", "error", err)
	}
}

// SyncOnce runs a single sync round.
func (c *Client) SyncOnce(ctx context.Context) (*sync.RoundSummary, error) {
	return c.sync.SyncNow(ctx)
}

// Watch blocks, syncing on workspace changes until ctx ends.
func (c *Client) Watch(ctx context.Context) error {
	return c.sync.Watch(ctx)
}

// Status fetches the server's pending plan without applying it.
func (c *Client) Status(ctx context.Context) (*inksdk.SyncStatusResponse, error) {
	return c.sync.Status(ctx)
}

// LocalChanges diffs the workspace against the last completed round.
func (c *Client) LocalChanges() (*sync.LocalChanges, error) {
	return c.sync.LocalChanges()
}

func (c *Client) Workspace() *workspace.Workspace {
	return c.ws
}

func (c *Client) Config() *config.Config {
	return c.config
}

// Close releases the journal, the HTTP session and the workspace lock.
func (c *Client) Close() error {
	err := c.sync.Close()
	c.sdk.Close()
	if uerr := c.ws.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}
