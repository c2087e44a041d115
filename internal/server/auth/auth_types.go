package auth

import "errors"

var (
	ErrInvalidEmail        = errors.New("invalid email")
	ErrInvalidSiteKey      = errors.New("invalid site key")
	ErrInvalidToken        = errors.New("invalid token")
	ErrInvalidRequestToken = errors.New("invalid request token")
)
