package auth

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		email    string
		wantOK   bool
	}{
		{"letters and digits", "walkdaily2026", "ayse@example.com", true},
		{"exactly ten", "abcdefgh12", "", true},
		{"unicode letters", "yürüyüş2026", "", true},
		{"too short", "abc123", "", false},
		{"nine chars", "abcdefg12", "", false},
		{"no digit", "walkingdaily", "", false},
		{"no letter", "1234567890", "", false},
		{"empty", "", "", false},
		{"contains email name", "ayse2026walk", "ayse@example.com", false},
		{"email name case-insensitive", "AYSE2026walk", "Ayse@example.com", false},
		{"short local part ignored", "ab12345678", "ab@example.com", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password, tc.email)
			if (err == nil) != tc.wantOK {
				t.Errorf("ValidatePassword(%q) error=%v, want valid=%v", tc.password, err, tc.wantOK)
			}
		})
	}
}

func TestValidatePassword_CollectsAllMessages(t *testing.T) {
	err := ValidatePassword("", "")
	verr, ok := err.(*PasswordValidationError)
	if !ok {
		t.Fatalf("error type = %T", err)
	}
	if len(verr.Messages) != 3 {
		t.Errorf("messages = %v, want 3", verr.Messages)
	}
}

func TestValidatePasswordOrError_FirstMessage(t *testing.T) {
	tests := []struct {
		password    string
		wantContain string
	}{
		{"short1", "at least 10"},
		{"walkingdaily", "digit"},
		{"1234567890", "letter"},
	}
	for _, tc := range tests {
		t.Run(tc.wantContain, func(t *testing.T) {
			err := ValidatePasswordOrError(tc.password, "")
			if err == nil || !strings.Contains(err.Error(), tc.wantContain) {
				t.Errorf("ValidatePasswordOrError(%q) = %v, want %q", tc.password, err, tc.wantContain)
			}
		})
	}
	if err := ValidatePasswordOrError("walkdaily2026", ""); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
}
