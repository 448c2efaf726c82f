package auth

import "testing"

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email  string
		wantOK bool
	}{
		{"ayse@example.com", true},
		{"dr.kaya+rehab@clinic.org", true},
		{"", false},
		{"no-at-sign", false},
		{"Ayse <ayse@example.com>", false},
		{"ayse@localhost", false},
	}
	for _, tc := range tests {
		if err := ValidateEmail(tc.email); (err == nil) != tc.wantOK {
			t.Errorf("ValidateEmail(%q) = %v, want ok=%v", tc.email, err, tc.wantOK)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ayse@Example.COM "); got != "ayse@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
