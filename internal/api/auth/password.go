package auth

import (
	"errors"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 10

// PasswordValidationError lists every rule a password broke.
type PasswordValidationError struct {
	Messages []string
}

func (e *PasswordValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// ValidatePassword requires MinPasswordLength characters with at least one
// letter and one digit, and rejects passwords containing the local part of
// email.
func ValidatePassword(password, email string) error {
	var messages []string

	if len([]rune(password)) < MinPasswordLength {
		messages = append(messages, "password must be at least 10 characters")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter {
		messages = append(messages, "password must contain a letter")
	}
	if !hasDigit {
		messages = append(messages, "password must contain a digit")
	}

	if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok && len(local) >= 3 &&
		strings.Contains(strings.ToLower(password), local) {
		messages = append(messages, "password must not contain your email name")
	}

	if len(messages) > 0 {
		return &PasswordValidationError{Messages: messages}
	}
	return nil
}

// ValidatePasswordOrError returns the first broken rule, for API responses.
func ValidatePasswordOrError(password, email string) error {
	err := ValidatePassword(password, email)
	var verr *PasswordValidationError
	if errors.As(err, &verr) {
		return errors.New(verr.Messages[0])
	}
	return err
}
