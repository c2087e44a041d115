package server

import (
	"fmt"

	"github.com/inkpress/inkpress/internal/server/auth"
)

const DefaultAddr = "127.0.0.1:8080"

type Config struct {
	HTTP    HTTPConfig    `mapstructure:"http"`
	Content ContentConfig `mapstructure:"content"`
	Auth    auth.Config   `mapstructure:"auth"`
}

type HTTPConfig struct {
	Addr     string `mapstructure:"addr"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`

	// EnableHSTS turns on transport security headers. Leave off for
	// localhost or plain-HTTP deployments behind a TLS proxy that sets
	// its own.
	EnableHSTS bool `mapstructure:"enable_hsts"`

	// Formatted rates like "10-M" (see ulule/limiter). AuthRateLimit
	// guards credential endpoints, APIRateLimit everything else.
	AuthRateLimit string `mapstructure:"auth_rate_limit"`
	APIRateLimit  string `mapstructure:"api_rate_limit"`
}

type ContentConfig struct {
	// Root is the server-side content tree. Created on first start.
	Root string `mapstructure:"root"`

	// DBPath locates the SQLite state database (manifests, post index).
	DBPath string `mapstructure:"db_path"`

	// DefaultAuthor stamps the author field on posts that omit it.
	DefaultAuthor string `mapstructure:"default_author"`

	// PostGlobs select which paths the publish pipeline treats as posts.
	// Empty means the built-in default.
	PostGlobs []string `mapstructure:"post_globs"`
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr required")
	}
	if c.Content.Root == "" {
		return fmt.Errorf("content.root required")
	}
	if c.Content.DBPath == "" {
		return fmt.Errorf("content.db_path required")
	}
	if c.Content.DefaultAuthor == "" {
		return fmt.Errorf("content.default_author required")
	}
	if c.HTTP.AuthRateLimit == "" {
		c.HTTP.AuthRateLimit = "10-M"
	}
	if c.HTTP.APIRateLimit == "" {
		c.HTTP.APIRateLimit = "600-M"
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	return nil
}
