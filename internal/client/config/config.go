// Package config holds the client's persisted settings. The file lives
// inside the workspace metadata dir, so a workspace carries its own server
// URL and credentials.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/inkpress/inkpress/internal/utils"
)

const DefaultServerURL = "http://127.0.0.1:8080"

type Config struct {
	ServerURL    string `json:"server_url"`
	Email        string `json:"email"`
	SiteKey      string `json:"site_key,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// Set by the loader, never serialized.
	Root string `json:"-"`
	Path string `json:"-"`
}

func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("workspace root required")
	}
	if !utils.IsValidURL(c.ServerURL) {
		return fmt.Errorf("invalid server url %q", c.ServerURL)
	}
	if err := utils.ValidateEmail(c.Email); err != nil {
		return fmt.Errorf("invalid email %q: %w", c.Email, err)
	}
	return nil
}

// Save writes the config back to the path it was loaded from. The file
// carries the site key and refresh token, hence the tight mode.
func (c *Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("config has no path")
	}

	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.Path, data, 0600)
}

// LoadFromFile reads a config and remembers where it came from.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.Path = path
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	return &cfg, nil
}
