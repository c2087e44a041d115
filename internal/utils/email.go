package utils

import (
	"errors"
	"net/mail"
	"strings"
)

var (
	ErrEmailEmpty   = errors.New("email is empty")
	ErrEmailInvalid = errors.New("email is not valid")
)

// ValidateEmail accepts plain addresses like jo@example.com. Display names
// and angle-bracket forms are rejected even though RFC 5322 allows them, and
// the domain must carry a dot; an author identity is a bare address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailEmpty
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrEmailInvalid
	}

	domain := addr.Address[strings.LastIndexByte(addr.Address, '@')+1:]
	if !strings.Contains(domain, ".") {
		return ErrEmailInvalid
	}
	return nil
}
