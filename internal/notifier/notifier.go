// Package notifier delivers care-team notifications to chat and email channels.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/cenk2025/hardpath/internal/metrics"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/risk"
)

// Notification is a message to the care team about one patient event.
type Notification struct {
	PatientID   string
	PatientName string
	Level       risk.Level
	Reason      string
	Symptoms    []string
	Severity    string
	Timestamp   time.Time
}

// Title returns the one-line heading used by every channel.
func (n *Notification) Title() string {
	name := n.PatientName
	if name == "" {
		name = n.PatientID
	}
	return fmt.Sprintf("HeartPath: %s symptom report from %s", n.Level, name)
}

// NewSymptomNotification builds the notification for a flagged symptom report.
// Free-text notes stay out of external channels.
func NewSymptomNotification(report *models.SymptomReport, patientName string, flagged risk.SymptomRisk) *Notification {
	tags := make([]string, len(report.Symptoms))
	for i, s := range report.Symptoms {
		tags[i] = string(s)
	}
	return &Notification{
		PatientID:   report.PatientID,
		PatientName: patientName,
		Level:       flagged.Level,
		Reason:      flagged.Reason,
		Symptoms:    tags,
		Severity:    string(report.Severity),
		Timestamp:   report.Timestamp,
	}
}

// Notifier is the interface for all notification channels.
type Notifier interface {
	// Name returns the channel name (e.g., "email", "slack").
	Name() string
	// Send delivers a notification.
	Send(ctx context.Context, n *Notification) error
	// Close releases any resources.
	Close() error
}

// ErrRateLimited is returned when a notification is dropped due to rate limiting.
var ErrRateLimited = errors.New("notification rate limited")

// SendTimeout bounds background deliveries started with Go.
const SendTimeout = 30 * time.Second

// Dispatcher fans notifications out to every registered channel.
type Dispatcher struct {
	mu          sync.RWMutex
	notifiers   map[string]Notifier
	rateLimiter *RateLimiter
	wg          sync.WaitGroup
}

// NewDispatcher creates a dispatcher with default rate limiting.
func NewDispatcher() *Dispatcher {
	return NewDispatcherWithRateLimit(DefaultRateLimitConfig())
}

// NewDispatcherWithRateLimit creates a dispatcher with custom rate limit configuration.
func NewDispatcherWithRateLimit(config RateLimitConfig) *Dispatcher {
	return &Dispatcher{
		notifiers:   make(map[string]Notifier),
		rateLimiter: NewRateLimiter(config),
	}
}

// Register adds a notifier, replacing any with the same name.
func (d *Dispatcher) Register(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers[n.Name()] = n
}

// Unregister removes a notifier.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.notifiers, name)
}

// Get returns a notifier by name.
func (d *Dispatcher) Get(name string) (Notifier, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	n, ok := d.notifiers[name]
	return n, ok
}

// Names returns the registered channel names in sorted order.
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.notifiers))
	for name := range d.notifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch sends n to every registered notifier. It returns ErrRateLimited
// without sending when the rate limit is exhausted.
func (d *Dispatcher) Dispatch(ctx context.Context, n *Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if len(d.notifiers) == 0 {
		return nil
	}

	if !d.rateLimiter.Allow() {
		metrics.NotificationsRateLimitedTotal.Inc()
		return ErrRateLimited
	}

	var errs []error
	for name, notifier := range d.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			metrics.NotificationsFailedTotal.WithLabelValues(name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		metrics.NotificationsSentTotal.WithLabelValues(name).Inc()
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %w", errors.Join(errs...))
	}
	return nil
}

// Go dispatches n in the background with SendTimeout. Failures are logged.
func (d *Dispatcher) Go(n *Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), SendTimeout)
		defer cancel()
		if err := d.Dispatch(ctx, n); err != nil {
			log.Printf("notification for patient %s failed: %v", n.PatientID, err)
		}
	}()
}

// Wait blocks until background dispatches started with Go have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// RateLimitStats returns the rate limiter statistics.
func (d *Dispatcher) RateLimitStats() RateLimitStats {
	return d.rateLimiter.Stats()
}

// Close waits for background dispatches and closes all registered notifiers.
func (d *Dispatcher) Close() error {
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for name, n := range d.notifiers {
		if err := n.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	d.notifiers = make(map[string]Notifier)

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}

// levelColor returns the hex color for a risk level.
func levelColor(level risk.Level) string {
	return risk.Color(level)
}

// levelEmoji returns an emoji for the risk level.
func levelEmoji(level risk.Level) string {
	switch level {
	case risk.LevelCritical, risk.LevelHigh:
		return "\U0001F534" // red circle
	case risk.LevelModerate, risk.LevelMedium:
		return "\U0001F7E1" // yellow circle
	case risk.LevelLow, risk.LevelNone:
		return "\U0001F7E2" // green circle
	default:
		return "⚪" // white circle
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
