package auth

import (
	"strings"
	"sync"
	"time"
)

type lockoutEntry struct {
	failures    int
	lockedUntil time.Time
}

// LockoutTracker counts failed logins per email address and locks the
// address once the threshold is reached. State lives in memory and resets on
// restart.
type LockoutTracker struct {
	mu        sync.Mutex
	entries   map[string]*lockoutEntry
	threshold int
	duration  time.Duration
	now       func() time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// NewLockoutTracker creates a tracker and starts its cleanup loop.
func NewLockoutTracker(threshold int, duration time.Duration) *LockoutTracker {
	t := &LockoutTracker{
		entries:   make(map[string]*lockoutEntry),
		threshold: threshold,
		duration:  duration,
		now:       time.Now,
		done:      make(chan struct{}),
	}
	go t.cleanupLoop(5 * time.Minute)
	return t
}

func lockoutKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RecordFailure records a failed attempt and reports whether the address is
// now locked. Failures while locked do not extend the lock.
func (t *LockoutTracker) RecordFailure(email string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := lockoutKey(email)
	now := t.now()
	e, ok := t.entries[key]
	if !ok {
		e = &lockoutEntry{}
		t.entries[key] = e
	}
	if !e.lockedUntil.IsZero() {
		if now.Before(e.lockedUntil) {
			return true
		}
		*e = lockoutEntry{}
	}

	e.failures++
	if e.failures >= t.threshold {
		e.lockedUntil = now.Add(t.duration)
		return true
	}
	return false
}

// IsLocked reports whether the address is currently locked.
func (t *LockoutTracker) IsLocked(email string) bool {
	return t.RemainingLockoutTime(email) > 0
}

// RemainingLockoutTime returns how long until the lock on email expires.
func (t *LockoutTracker) RemainingLockoutTime(email string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[lockoutKey(email)]
	if !ok || e.lockedUntil.IsZero() {
		return 0
	}
	if remaining := e.lockedUntil.Sub(t.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// ClearFailures forgets an address after a successful login.
func (t *LockoutTracker) ClearFailures(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, lockoutKey(email))
}

// Close stops the cleanup loop.
func (t *LockoutTracker) Close() {
	t.closeOnce.Do(func() { close(t.done) })
}

func (t *LockoutTracker) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.cleanup()
		case <-t.done:
			return
		}
	}
}

// cleanup drops expired locks and partial failure counts.
func (t *LockoutTracker) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, e := range t.entries {
		if e.lockedUntil.IsZero() || now.After(e.lockedUntil) {
			delete(t.entries, key)
		}
	}
}
