package wearable

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/cenk2025/hardpath/internal/metrics"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/storage"
)

var (
	// ErrMissingReference is returned for deliveries without a patient reference.
	// Callers treat it as a no-op, not a failure.
	ErrMissingReference = errors.New("webhook payload has no patient reference")
	// ErrUnknownPatient is returned when the reference matches no patient.
	ErrUnknownPatient = errors.New("webhook reference matches no patient")
)

// Store is the subset of storage the ingester writes to.
type Store interface {
	Users() storage.UserRepository
	Metrics() storage.MetricRepository
	BloodPressure() storage.BloodPressureRepository
	Wearables() storage.WearableRepository
}

// Result summarizes one delivery.
type Result struct {
	Type          EventType `json:"type"`
	Metrics       int       `json:"metrics"`
	BloodPressure int       `json:"blood_pressure"`
	Skipped       int       `json:"skipped"`
	Ignored       bool      `json:"ignored,omitempty"` // connection event for an unsupported provider
}

// Ingester applies webhook deliveries to storage.
type Ingester struct {
	store  Store
	broker *Broker
	now    func() time.Time

	// OnConnected is called after an auth event marks a connection connected.
	OnConnected func(patientID string, provider models.Provider)
}

// NewIngester creates an ingester. broker may be nil.
func NewIngester(store Store, broker *Broker) *Ingester {
	return &Ingester{store: store, broker: broker, now: time.Now}
}

// Handle applies p. Per-entry failures are logged and counted as skipped;
// only failures that affect the whole delivery are returned.
func (i *Ingester) Handle(ctx context.Context, p *Payload) (*Result, error) {
	res := &Result{Type: p.Type}
	label := eventLabel(p.Type)

	patientID := p.ReferenceID()
	if patientID == "" {
		metrics.WebhookEventsTotal.WithLabelValues(label, "ignored").Inc()
		return res, ErrMissingReference
	}
	patient, err := i.store.Users().GetByID(ctx, patientID)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(label, "error").Inc()
		return res, fmt.Errorf("lookup patient: %w", err)
	}
	if patient == nil {
		metrics.WebhookEventsTotal.WithLabelValues(label, "ignored").Inc()
		return res, ErrUnknownPatient
	}

	var provider models.Provider
	if name := p.Provider(); name != "" {
		parsed, ok := models.ParseProvider(name)
		if ok {
			provider = parsed
		} else {
			log.Printf("wearable provider unsupported: patient %s provider %q event %s", patientID, name, p.Type)
		}
	}
	now := i.now().UTC()

	switch p.Type {
	case EventAuth, EventDeauth:
		if provider == "" {
			metrics.WebhookEventsTotal.WithLabelValues(label, "ignored").Inc()
			res.Ignored = true
			return res, nil
		}
	}

	switch p.Type {
	case EventAuth:
		if err := i.store.Wearables().MarkConnected(ctx, patientID, provider, p.User.UserID, now); err != nil {
			metrics.WebhookEventsTotal.WithLabelValues(label, "error").Inc()
			return res, err
		}
		log.Printf("wearable connected: patient %s provider %s", patientID, provider)
		if i.broker != nil {
			i.broker.Notify(patientID, provider)
		}
		if i.OnConnected != nil {
			i.OnConnected(patientID, provider)
		}
		metrics.WebhookEventsTotal.WithLabelValues(label, "ok").Inc()
		return res, nil

	case EventDeauth:
		if err := i.store.Wearables().MarkDisconnected(ctx, patientID, provider); err != nil {
			metrics.WebhookEventsTotal.WithLabelValues(label, "error").Inc()
			return res, err
		}
		metrics.WebhookEventsTotal.WithLabelValues(label, "ok").Inc()
		return res, nil
	}

	norm := Normalize(p, now)
	for _, s := range norm.Skipped {
		metrics.EntriesSkippedTotal.WithLabelValues(s.Reason).Inc()
		log.Printf("wearable entry skipped: patient %s entry %d sample %d: %s", patientID, s.Entry, s.Sample, s.Reason)
	}
	res.Skipped = len(norm.Skipped)

	for idx, u := range norm.Metrics {
		m := &models.DailyMetric{
			PatientID:  patientID,
			Day:        u.Day,
			RecordedAt: u.RecordedAt,
			RestingHR:  u.RestingHR,
			HRVMs:      u.HRVMs,
			SleepHours: u.SleepHours,
		}
		if err := i.store.Metrics().UpsertWearable(ctx, m); err != nil {
			log.Printf("wearable metric upsert failed: patient %s entry %d: %v", patientID, idx, err)
			metrics.EntriesSkippedTotal.WithLabelValues("store_error").Inc()
			res.Skipped++
			continue
		}
		metrics.MetricsUpsertedTotal.Inc()
		res.Metrics++
	}

	for idx, e := range norm.BloodPressure {
		b := &models.BloodPressureLog{
			PatientID:  patientID,
			Systolic:   e.Systolic,
			Diastolic:  e.Diastolic,
			Period:     e.Period,
			Notes:      "Auto-synced from " + p.Provider(),
			RecordedAt: e.RecordedAt,
		}
		if err := i.store.BloodPressure().Create(ctx, b); err != nil {
			log.Printf("wearable blood pressure insert failed: patient %s sample %d: %v", patientID, idx, err)
			metrics.EntriesSkippedTotal.WithLabelValues("store_error").Inc()
			res.Skipped++
			continue
		}
		metrics.BloodPressureInsertedTotal.Inc()
		res.BloodPressure++
	}

	if provider != "" {
		if err := i.store.Wearables().TouchSync(ctx, patientID, provider, now); err != nil {
			log.Printf("wearable sync timestamp update failed: patient %s provider %s: %v", patientID, provider, err)
		}
	}

	metrics.WebhookEventsTotal.WithLabelValues(label, "ok").Inc()
	return res, nil
}

func eventLabel(t EventType) string {
	switch t {
	case EventAuth, EventDeauth, EventDaily, EventActivity, EventBody:
		return string(t)
	}
	return "other"
}
