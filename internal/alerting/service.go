package alerting

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cenk2025/hardpath/internal/metrics"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/storage"
)

// Filter selects alerts by resolution state.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterActive   Filter = "active"
	FilterResolved Filter = "resolved"
)

// ParseFilter maps a query value to a Filter. Unknown values return false.
func ParseFilter(s string) (Filter, bool) {
	switch Filter(s) {
	case "", FilterAll:
		return FilterAll, true
	case FilterActive, FilterResolved:
		return Filter(s), true
	}
	return "", false
}

// Store is the subset of storage the alert service reads.
type Store interface {
	Symptoms() storage.SymptomRepository
	Metrics() storage.MetricRepository
	BloodPressure() storage.BloodPressureRepository
	Resolutions() storage.ResolutionRepository
}

// Service fetches source rows, builds alerts and overlays persisted resolutions.
type Service struct {
	store Store
	rules *RuleSet
}

// NewService creates an alert service. rules may be nil.
func NewService(store Store, rules *RuleSet) *Service {
	return &Service{store: store, rules: rules}
}

// List rebuilds alerts for the window ending at now.
func (s *Service) List(ctx context.Context, now time.Time, filter Filter) ([]*models.Alert, error) {
	start := time.Now()
	defer func() { metrics.AlertBuildDuration.Observe(time.Since(start).Seconds()) }()

	since := now.Add(-Window)
	rules := s.rules.Rules()

	var (
		src         Sources
		recent      []*models.DailyMetric
		resolutions []*models.AlertResolution
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		src.Symptoms, err = s.store.Symptoms().ListSince(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		src.HighHR, err = s.store.Metrics().ListHighHeartRate(gctx, since, HighHRThreshold)
		return err
	})
	g.Go(func() (err error) {
		src.LowReadiness, err = s.store.Metrics().ListLowReadiness(gctx, since, LowReadinessThreshold)
		return err
	})
	g.Go(func() (err error) {
		src.HighBP, err = s.store.BloodPressure().ListHighSystolic(gctx, since, HighBPThreshold)
		return err
	})
	g.Go(func() (err error) {
		resolutions, err = s.store.Resolutions().List(gctx)
		return err
	})
	if len(rules) > 0 {
		g.Go(func() (err error) {
			recent, err = s.store.Metrics().ListSince(gctx, since)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch alert sources: %w", err)
	}

	alerts := Build(src)
	if len(rules) > 0 {
		custom, errs := EvaluateRules(rules, recent)
		for _, err := range errs {
			metrics.RuleErrorsTotal.Inc()
			log.Printf("custom rule evaluation failed: %v", err)
		}
		alerts = append(alerts, custom...)
		SortAlerts(alerts)
	}

	ApplyResolutions(alerts, resolutions)
	recordActive(alerts)
	return FilterAlerts(alerts, filter), nil
}

// ApplyResolutions marks alerts whose key has a stored resolution.
func ApplyResolutions(alerts []*models.Alert, resolutions []*models.AlertResolution) {
	byKey := make(map[string]*models.AlertResolution, len(resolutions))
	for _, r := range resolutions {
		byKey[r.AlertKey] = r
	}
	for _, a := range alerts {
		if r, ok := byKey[a.Key]; ok {
			at := r.ResolvedAt
			a.Resolved = true
			a.ResolvedBy = r.ResolvedBy
			a.ResolvedAt = &at
		}
	}
}

// FilterAlerts returns the alerts matching f, preserving order.
func FilterAlerts(alerts []*models.Alert, f Filter) []*models.Alert {
	if f == FilterAll || f == "" {
		return alerts
	}
	out := make([]*models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if (f == FilterResolved) == a.Resolved {
			out = append(out, a)
		}
	}
	return out
}

// ForPatient returns the alerts belonging to patientID.
func ForPatient(alerts []*models.Alert, patientID string) []*models.Alert {
	out := make([]*models.Alert, 0)
	for _, a := range alerts {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out
}

func recordActive(alerts []*models.Alert) {
	counts := map[models.AlertType]int{
		models.AlertSymptom: 0, models.AlertHighHR: 0, models.AlertHighBP: 0,
		models.AlertLowReadiness: 0, models.AlertCustom: 0,
	}
	for _, a := range alerts {
		if !a.Resolved {
			counts[a.Type]++
		}
	}
	for t, n := range counts {
		metrics.ActiveAlerts.WithLabelValues(string(t)).Set(float64(n))
	}
}

// ErrAlertNotFound is returned when resolving a key that is not a current alert.
var ErrAlertNotFound = errors.New("alert not found")

// Resolve records a clinician acknowledgement. The key must match an alert
// in the current window.
func (s *Service) Resolve(ctx context.Context, now time.Time, key, clinicianID, note string) (*models.AlertResolution, error) {
	alerts, err := s.List(ctx, now, FilterAll)
	if err != nil {
		return nil, err
	}
	found := false
	for _, a := range alerts {
		if a.Key == key {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrAlertNotFound
	}

	res := &models.AlertResolution{AlertKey: key, ResolvedBy: clinicianID, ResolvedAt: now.UTC(), Note: note}
	if err := s.store.Resolutions().Resolve(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Reopen removes a resolution.
func (s *Service) Reopen(ctx context.Context, key string) error {
	err := s.store.Resolutions().Reopen(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrAlertNotFound
	}
	return err
}

// Prune deletes resolutions older than twice the alert window; their alerts
// can no longer be rebuilt.
func (s *Service) Prune(ctx context.Context, now time.Time) (int64, error) {
	return s.store.Resolutions().DeleteBefore(ctx, now.Add(-2*Window))
}
