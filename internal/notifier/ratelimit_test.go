package notifier

import (
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 3, Window: time.Hour, Enabled: true})

	for i := 0; i < 3; i++ {
		if !limiter.Allow() {
			t.Fatalf("request %d denied", i)
		}
	}
	if limiter.Allow() {
		t.Error("request over the limit allowed")
	}

	stats := limiter.Stats()
	if stats.Dropped != 1 {
		t.Errorf("dropped = %d, want 1", stats.Dropped)
	}
	if stats.Available != 0 {
		t.Errorf("available = %d, want 0", stats.Available)
	}
	if stats.MaxPerWindow != 3 || stats.Window != time.Hour || !stats.Enabled {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 2, Window: 100 * time.Millisecond, Enabled: true})

	limiter.Allow()
	limiter.Allow()
	if limiter.Allow() {
		t.Fatal("bucket should be empty")
	}

	time.Sleep(150 * time.Millisecond)
	if !limiter.Allow() {
		t.Error("bucket did not refill")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{MaxPerWindow: 1, Window: time.Hour, Enabled: false})
	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("disabled limiter denied request %d", i)
		}
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{Enabled: true})
	stats := limiter.Stats()
	if stats.MaxPerWindow != 10 || stats.Window != time.Minute {
		t.Errorf("defaults = %+v", stats)
	}
}

func TestRateLimiterNil(t *testing.T) {
	var limiter *RateLimiter
	if !limiter.Allow() {
		t.Error("nil limiter should allow")
	}
	if stats := limiter.Stats(); stats.MaxPerWindow != 0 {
		t.Errorf("nil stats = %+v", stats)
	}
}
