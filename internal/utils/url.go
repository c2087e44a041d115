package utils

import (
	"net/url"
	"strings"
)

// IsValidURL reports whether raw parses as an absolute http or https URL.
func IsValidURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return (scheme == "http" || scheme == "https") && parsed.Host != ""
}
