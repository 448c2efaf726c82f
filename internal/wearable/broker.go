package wearable

import (
	"context"
	"sync"

	"github.com/cenk2025/hardpath/internal/metrics"
	"github.com/cenk2025/hardpath/internal/models"
)

type waitKey struct {
	patientID string
	provider  models.Provider
}

// Broker wakes callers waiting for a provider connection to complete.
// The webhook ingester calls Notify when an auth event arrives.
type Broker struct {
	mu      sync.Mutex
	waiters map[waitKey]map[chan struct{}]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{waiters: make(map[waitKey]map[chan struct{}]struct{})}
}

// Subscribe registers interest in (patientID, provider). The returned channel
// is closed on the next Notify for that pair. cancel must be called when the
// caller stops waiting.
func (b *Broker) Subscribe(patientID string, provider models.Provider) (<-chan struct{}, func()) {
	key := waitKey{patientID, provider}
	ch := make(chan struct{})

	b.mu.Lock()
	set, ok := b.waiters[key]
	if !ok {
		set = make(map[chan struct{}]struct{})
		b.waiters[key] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()
	metrics.ConnectWaiters.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if set, ok := b.waiters[key]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(b.waiters, key)
				}
			}
			b.mu.Unlock()
			metrics.ConnectWaiters.Dec()
		})
	}
	return ch, cancel
}

// Notify wakes every waiter for (patientID, provider) and returns how many
// were woken.
func (b *Broker) Notify(patientID string, provider models.Provider) int {
	key := waitKey{patientID, provider}

	b.mu.Lock()
	set := b.waiters[key]
	delete(b.waiters, key)
	b.mu.Unlock()

	for ch := range set {
		close(ch)
	}
	return len(set)
}

// Wait blocks until Notify is called for (patientID, provider) or ctx is done.
func (b *Broker) Wait(ctx context.Context, patientID string, provider models.Provider) error {
	ch, cancel := b.Subscribe(patientID, provider)
	defer cancel()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
