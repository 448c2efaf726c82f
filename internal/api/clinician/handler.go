// Package clinician serves the care-team dashboard: patient roster, patient
// detail, risk summaries and alert triage.
package clinician

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/cenk2025/hardpath/internal/alerting"
	"github.com/cenk2025/hardpath/internal/api/checkins"
	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/programs"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/risk"
	"github.com/cenk2025/hardpath/internal/storage"
)

const (
	detailDays    = 30
	rosterWorkers = 8
	maxNoteLength = 1000
)

// Handler handles care-team endpoints.
type Handler struct {
	storage storage.Storage
	alerts  *alerting.Service
	now     func() time.Time
}

// NewHandler creates a new clinician handler.
func NewHandler(store storage.Storage, alerts *alerting.Service) *Handler {
	return &Handler{storage: store, alerts: alerts, now: time.Now}
}

// PatientSummary is one row of the patient roster.
type PatientSummary struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Email               string              `json:"email"`
	Language            string              `json:"language"`
	OnboardingCompleted bool                `json:"onboarding_completed"`
	Latest              *models.DailyMetric `json:"latest_metric"`
	ActiveAlerts        int                 `json:"active_alerts"`
}

// PatientDetail is everything the care team sees for one patient.
type PatientDetail struct {
	Patient       *models.User                 `json:"patient"`
	Consent       *models.Consent              `json:"consent"`
	Metrics       []*models.DailyMetric        `json:"metrics"`
	Symptoms      []*models.SymptomReport      `json:"symptoms"`
	BloodPressure []*models.BloodPressureLog   `json:"blood_pressure"`
	Medications   []*models.Medication         `json:"medications"`
	Program       *models.RehabProgram         `json:"program"`
	Sessions      []*models.Session            `json:"sessions"`
	Wearables     []*models.WearableConnection `json:"wearables"`
	Alerts        []*models.Alert              `json:"alerts"`
}

// RiskSummary combines the risk models for one patient.
type RiskSummary struct {
	Symptoms     risk.SymptomRisk   `json:"symptoms"`
	Readiness    risk.Readiness     `json:"readiness"`
	Adherence    risk.Adherence     `json:"adherence"`
	Overexertion *risk.Overexertion `json:"overexertion"`
	Color        string             `json:"color"`
}

// ResolveRequest is the optional body of POST /clinician/alerts/{key}/resolve.
type ResolveRequest struct {
	Note string `json:"note"`
}

// Patients returns every patient with their latest metric row and active
// alert count.
func (h *Handler) Patients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now().UTC()

	patients, err := h.storage.Users().ListByRole(ctx, models.RolePatient)
	if err != nil {
		respond.Internal(w, "list patients", err)
		return
	}
	active, err := h.alerts.List(ctx, now, alerting.FilterActive)
	if err != nil {
		respond.Internal(w, "list alerts", err)
		return
	}
	alertCounts := make(map[string]int)
	for _, a := range active {
		alertCounts[a.PatientID]++
	}

	summaries := make([]PatientSummary, len(patients))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rosterWorkers)
	for i, p := range patients {
		summaries[i] = PatientSummary{
			ID:                  p.ID,
			Name:                p.DisplayName(),
			Email:               p.Email,
			Language:            p.Language,
			OnboardingCompleted: p.OnboardingCompleted,
			ActiveAlerts:        alertCounts[p.ID],
		}
		g.Go(func() error {
			rows, err := h.storage.Metrics().ListByPatient(gctx, p.ID, now.AddDate(0, 0, -7))
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				summaries[i].Latest = rows[len(rows)-1]
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		respond.Internal(w, "load patient metrics", err)
		return
	}
	respond.OK(w, summaries)
}

// patient loads {id} and writes 404 unless it names a patient.
func (h *Handler) patient(w http.ResponseWriter, r *http.Request) *models.User {
	u, err := h.storage.Users().GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respond.Internal(w, "get patient", err)
		return nil
	}
	if u == nil || u.Role != models.RolePatient {
		respond.NotFound(w, "patient not found")
		return nil
	}
	return u
}

// Patient returns the detail view of {id}.
func (h *Handler) Patient(w http.ResponseWriter, r *http.Request) {
	p := h.patient(w, r)
	if p == nil {
		return
	}

	now := h.now().UTC()
	since := now.AddDate(0, 0, -detailDays)
	d := PatientDetail{Patient: p}

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		d.Consent, err = h.storage.Consents().Get(ctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		d.Metrics, err = h.storage.Metrics().ListByPatient(ctx, p.ID, since)
		return err
	})
	g.Go(func() (err error) {
		d.Symptoms, err = h.storage.Symptoms().ListByPatient(ctx, p.ID, since)
		return err
	})
	g.Go(func() (err error) {
		d.BloodPressure, err = h.storage.BloodPressure().ListByPatient(ctx, p.ID, since)
		return err
	})
	g.Go(func() (err error) {
		d.Medications, err = h.storage.Medications().ListByPatient(ctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		d.Program, err = h.storage.Programs().GetAssigned(ctx, p.ID)
		return err
	})
	g.Go(func() (err error) {
		d.Sessions, err = h.storage.Programs().ListSessions(ctx, p.ID, "", "")
		return err
	})
	g.Go(func() (err error) {
		d.Wearables, err = h.storage.Wearables().ListByPatient(ctx, p.ID)
		return err
	})
	g.Go(func() error {
		all, err := h.alerts.List(ctx, now, alerting.FilterAll)
		d.Alerts = alerting.ForPatient(all, p.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		respond.Internal(w, "load patient detail", err)
		return
	}
	respond.OK(w, d)
}

// SafeMax parses ?safe_max= with a default of risk.DefaultSafeMaxHR.
func SafeMax(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("safe_max")
	if raw == "" {
		return risk.DefaultSafeMaxHR, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, risk.ErrInvalidSafeMax
	}
	return n, nil
}

// Risk evaluates the risk models against {id}'s stored data.
func (h *Handler) Risk(w http.ResponseWriter, r *http.Request) {
	p := h.patient(w, r)
	if p == nil {
		return
	}
	safeMax, err := SafeMax(r)
	if err == nil && safeMax <= 0 {
		err = risk.ErrInvalidSafeMax
	}
	if err != nil {
		respond.Validation(w, err.Error())
		return
	}

	ctx := r.Context()
	now := h.now().UTC()
	reports, err := h.storage.Symptoms().ListByPatient(ctx, p.ID, now.Add(-risk.SymptomWindow))
	if err != nil {
		respond.Internal(w, "list symptoms", err)
		return
	}
	today, err := h.storage.Metrics().GetDay(ctx, p.ID, models.DayOf(now))
	if err != nil {
		respond.Internal(w, "get today's metric", err)
		return
	}
	sessions, err := h.storage.Programs().ListSessions(ctx, p.ID, "", "")
	if err != nil {
		respond.Internal(w, "list sessions", err)
		return
	}

	summary := RiskSummary{
		Symptoms:  risk.FlagSymptoms(reports, now),
		Readiness: risk.ScoreReadiness(checkins.ReadinessInputOf(today)),
		Adherence: programs.AdherenceOf(sessions, models.DayOf(now)),
	}
	if today != nil && today.RestingHR != nil {
		o, err := risk.DetectOverexertion(*today.RestingHR, safeMax)
		if err != nil {
			respond.Validation(w, err.Error())
			return
		}
		summary.Overexertion = &o
	}
	summary.Color = risk.Color(summary.Symptoms.Level)
	respond.OK(w, summary)
}

// Alerts lists current alerts, optionally filtered by ?filter= and ?patient=.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	filter, ok := alerting.ParseFilter(r.URL.Query().Get("filter"))
	if !ok {
		respond.Validation(w, "filter must be one of: all, active, resolved")
		return
	}
	alerts, err := h.alerts.List(r.Context(), h.now(), filter)
	if err != nil {
		respond.Internal(w, "list alerts", err)
		return
	}
	if patientID := r.URL.Query().Get("patient"); patientID != "" {
		alerts = alerting.ForPatient(alerts, patientID)
	}
	if alerts == nil {
		alerts = []*models.Alert{}
	}
	respond.OK(w, alerts)
}

// Resolve acknowledges alert {key}.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if r.ContentLength != 0 && !respond.Decode(w, r, &req) {
		return
	}
	note := strings.TrimSpace(req.Note)
	if len([]rune(note)) > maxNoteLength {
		respond.Validation(w, "note must be at most 1000 characters")
		return
	}

	ctx := r.Context()
	res, err := h.alerts.Resolve(ctx, h.now(), chi.URLParam(r, "key"), middleware.GetUserID(ctx), note)
	if errors.Is(err, alerting.ErrAlertNotFound) {
		respond.NotFound(w, "alert not found")
		return
	}
	if err != nil {
		respond.Internal(w, "resolve alert", err)
		return
	}
	respond.OK(w, res)
}

// Reopen removes the resolution of alert {key}.
func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	err := h.alerts.Reopen(r.Context(), chi.URLParam(r, "key"))
	if errors.Is(err, alerting.ErrAlertNotFound) {
		respond.NotFound(w, "alert not resolved")
		return
	}
	if err != nil {
		respond.Internal(w, "reopen alert", err)
		return
	}
	respond.NoContent(w)
}
