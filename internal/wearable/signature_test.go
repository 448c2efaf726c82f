package wearable

import (
	"errors"
	"testing"
	"time"
)

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	body := []byte(`{"type":"daily"}`)
	now := time.Unix(1767225600, 0)
	valid := Sign(secret, body, now)

	tests := []struct {
		name    string
		header  string
		body    []byte
		now     time.Time
		wantErr bool
	}{
		{"valid", valid, body, now, false},
		{"valid within tolerance", valid, body, now.Add(4 * time.Minute), false},
		{"expired", valid, body, now.Add(10 * time.Minute), true},
		{"tampered body", valid, []byte(`{"type":"body"}`), now, true},
		{"wrong secret", Sign("other", body, now), body, now, true},
		{"missing", "", body, now, true},
		{"malformed", "garbage", body, now, true},
		{"bad hex", "t=1767225600,v1=zz", body, now, true},
		{"second signature matches", "t=1767225600,v1=00ff," + valid[len("t=1767225600,"):], body, now, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := VerifySignature(secret, tc.header, tc.body, tc.now, DefaultSignatureTolerance)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidSignature) {
					t.Errorf("err = %v, want ErrInvalidSignature", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
