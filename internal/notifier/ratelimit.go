package notifier

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	MaxPerWindow int           // Maximum notifications per window (default: 10)
	Window       time.Duration // Time window (default: 1 minute)
	Enabled      bool          // Whether rate limiting is enabled (default: true)
}

// DefaultRateLimitConfig returns default rate limit settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxPerWindow: 10,
		Window:       time.Minute,
		Enabled:      true,
	}
}

// RateLimiter is a token bucket holding MaxPerWindow tokens that refills
// completely over Window.
type RateLimiter struct {
	limiter *rate.Limiter
	config  RateLimitConfig
	dropped atomic.Int64
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.MaxPerWindow <= 0 {
		config.MaxPerWindow = 10
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	every := config.Window / time.Duration(config.MaxPerWindow)
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Every(every), config.MaxPerWindow),
		config:  config,
	}
}

// Allow reports whether a notification may be sent now and consumes a token if so.
func (l *RateLimiter) Allow() bool {
	if l == nil || !l.config.Enabled {
		return true
	}
	if l.limiter.Allow() {
		return true
	}
	l.dropped.Add(1)
	return false
}

// RateLimitStats contains rate limiter statistics.
type RateLimitStats struct {
	Dropped      int64         // Total notifications dropped
	Available    int           // Whole tokens available now
	MaxPerWindow int           // Maximum allowed per window
	Window       time.Duration // Window duration
	Enabled      bool          // Whether rate limiting is enabled
}

// Stats returns rate limiter statistics.
func (l *RateLimiter) Stats() RateLimitStats {
	if l == nil {
		return RateLimitStats{}
	}
	return RateLimitStats{
		Dropped:      l.dropped.Load(),
		Available:    int(l.limiter.Tokens()),
		MaxPerWindow: l.config.MaxPerWindow,
		Window:       l.config.Window,
		Enabled:      l.config.Enabled,
	}
}
