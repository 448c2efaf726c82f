package wearables

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestWaitTimeout(t *testing.T) {
	tests := []struct {
		query  string
		want   time.Duration
		wantOK bool
	}{
		{"", DefaultWaitTimeout, true},
		{"?timeout=30s", 30 * time.Second, true},
		{"?timeout=45", 45 * time.Second, true},
		{"?timeout=2m", 2 * time.Minute, true},
		{"?timeout=3m", 0, false},
		{"?timeout=0", 0, false},
		{"?timeout=soon", 0, false},
	}
	for _, tc := range tests {
		got, ok := WaitTimeout(httptest.NewRequest("GET", "/wearables/GARMIN/wait"+tc.query, nil))
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("WaitTimeout(%q) = %v,%v want %v,%v", tc.query, got, ok, tc.want, tc.wantOK)
		}
	}
}
