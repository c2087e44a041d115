package inksdk

import (
	"fmt"

	"github.com/inkpress/inkpress/internal/utils"
)

const (
	DefaultBaseURL = "http://127.0.0.1:8080"
)

// Config for the SDK client. Either SiteKey (first login) or RefreshToken
// (subsequent runs) must be present to reach the writer endpoints; the
// published site needs neither.
type Config struct {
	BaseURL      string // server URL, required
	Email        string // session identity, required
	SiteKey      string // writer credential, optional
	AccessToken  string // optional, applied when present
	RefreshToken string // optional
}

func (c *Config) Validate() error {
	if !utils.IsValidURL(c.BaseURL) {
		return ErrNoServerURL
	}
	if err := utils.ValidateEmail(c.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// String masks the credentials, so a config is safe to log.
func (c *Config) String() string {
	return fmt.Sprintf("Config{BaseURL: %s, Email: %s, SiteKey: %s, RefreshToken: %s}",
		c.BaseURL, c.Email, utils.MaskSecret(c.SiteKey), utils.MaskSecret(c.RefreshToken))
}
