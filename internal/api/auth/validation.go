package auth

import (
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lower-cases an address so it can serve as the
// login name.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail accepts a bare address of at most 254 characters.
func ValidateEmail(email string) error {
	if email == "" {
		return errorf("email is required")
	}
	if len(email) > 254 {
		return errorf("email must be at most 254 characters")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return errorf("invalid email format")
	}
	return nil
}

// ValidateFullName bounds the display name.
func ValidateFullName(name string) error {
	if len([]rune(name)) > 100 {
		return errorf("full_name must be at most 100 characters")
	}
	return nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

func errorf(msg string) error { return validationError(msg) }
