package inksdk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		cfg := &Config{
			BaseURL: "http://127.0.0.1:8080",
			Email:   "jo@example.com",
			SiteKey: "correct-horse-battery-staple",
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("tokens alone are fine", func(t *testing.T) {
		cfg := &Config{
			BaseURL:      "https://blog.example.com",
			Email:        "jo@example.com",
			RefreshToken: "rtok",
		}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid email fails", func(t *testing.T) {
		cfg := &Config{
			BaseURL: "http://127.0.0.1:8080",
			Email:   "not-an-email",
		}
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidEmail)
	})

	t.Run("missing base url fails", func(t *testing.T) {
		cfg := &Config{
			BaseURL: "",
			Email:   "jo@example.com",
		}
		assert.ErrorIs(t, cfg.Validate(), ErrNoServerURL)
	})

	t.Run("base url without scheme fails", func(t *testing.T) {
		cfg := &Config{
			BaseURL: "blog.example.com",
			Email:   "jo@example.com",
		}
		assert.ErrorIs(t, cfg.Validate(), ErrNoServerURL)
	})
}

func TestConfig_StringMasksCredentials(t *testing.T) {
	cfg := &Config{
		BaseURL:      "http://127.0.0.1:8080",
		Email:        "jo@example.com",
		SiteKey:      "correct-horse-battery-staple",
		RefreshToken: "rtok-123456",
	}

	s := cfg.String()
	assert.NotContains(t, s, "correct-horse-battery-staple")
	assert.NotContains(t, s, "rtok-123456")
	assert.Contains(t, s, "jo@example.com")
}
