// Package checkins serves daily check-ins and the dashboard insight.
package checkins

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/risk"
	"github.com/cenk2025/hardpath/internal/storage"
)

const (
	defaultHistoryDays = 30
	maxHistoryDays     = 365
)

// Handler handles check-in endpoints.
type Handler struct {
	storage storage.Storage
	now     func() time.Time
}

// NewHandler creates a new check-in handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store, now: time.Now}
}

// CheckinRequest is the body of POST /checkins. Sleep and HRV fall back to
// today's wearable values, then to the model defaults.
type CheckinRequest struct {
	EnergyLevel *int     `json:"energy_level"`
	HeartRate   *int     `json:"heart_rate"`
	SleepHours  *float64 `json:"sleep_hours"`
	HRVMs       *int     `json:"hrv_ms"`
	Symptoms    []string `json:"symptoms"`
}

// CheckinResponse returns the stored row with its scored readiness.
type CheckinResponse struct {
	Metric    *models.DailyMetric `json:"metric"`
	Readiness risk.Readiness      `json:"readiness"`
}

// Validate checks ranges and the symptom vocabulary.
func (req *CheckinRequest) Validate() string {
	if req.EnergyLevel == nil {
		return "energy_level is required"
	}
	if *req.EnergyLevel < 1 || *req.EnergyLevel > 10 {
		return "energy_level must be between 1 and 10"
	}
	if req.HeartRate != nil && (*req.HeartRate < 30 || *req.HeartRate > 220) {
		return "heart_rate must be between 30 and 220"
	}
	if req.SleepHours != nil && (*req.SleepHours < 0 || *req.SleepHours > 24) {
		return "sleep_hours must be between 0 and 24"
	}
	if req.HRVMs != nil && (*req.HRVMs <= 0 || *req.HRVMs > 300) {
		return "hrv_ms must be between 1 and 300"
	}
	for _, s := range req.Symptoms {
		if !models.SymptomType(s).IsValid() {
			return "unknown symptom: " + s
		}
	}
	return ""
}

// Create records today's check-in and its readiness score.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CheckinRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		respond.Validation(w, msg)
		return
	}

	ctx := r.Context()
	patientID := middleware.GetUserID(ctx)
	now := h.now().UTC()
	day := models.DayOf(now)

	existing, err := h.storage.Metrics().GetDay(ctx, patientID, day)
	if err != nil {
		respond.Internal(w, "get today's metric", err)
		return
	}

	in := risk.ReadinessInput{EnergyLevel: req.EnergyLevel, HeartRate: req.HeartRate, SleepHours: req.SleepHours, HRVMs: req.HRVMs}
	if existing != nil {
		if in.HeartRate == nil {
			in.HeartRate = existing.RestingHR
		}
		if in.SleepHours == nil {
			in.SleepHours = existing.SleepHours
		}
		if in.HRVMs == nil {
			in.HRVMs = existing.HRVMs
		}
	}
	readiness := risk.ScoreReadiness(in)

	m := &models.DailyMetric{
		PatientID:      patientID,
		Day:            day,
		RecordedAt:     now,
		RestingHR:      req.HeartRate,
		HRVMs:          req.HRVMs,
		SleepHours:     req.SleepHours,
		EnergyLevel:    req.EnergyLevel,
		ReadinessScore: models.IntPtr(readiness.Score),
		Symptoms:       req.Symptoms,
	}
	if err := h.storage.Metrics().UpsertCheckin(ctx, m); err != nil {
		respond.Internal(w, "store checkin", err)
		return
	}

	stored, err := h.storage.Metrics().GetDay(ctx, patientID, day)
	if err != nil || stored == nil {
		stored = m
	}
	respond.Created(w, CheckinResponse{Metric: stored, Readiness: readiness})
}

// HistoryDays parses ?days= with a default of 30 and a cap of 365.
func HistoryDays(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return defaultHistoryDays, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxHistoryDays {
		return 0, false
	}
	return n, true
}

// List returns the caller's daily metrics for the last ?days= days.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	days, ok := HistoryDays(r)
	if !ok {
		respond.Validation(w, "days must be between 1 and 365")
		return
	}
	ctx := r.Context()
	since := h.now().UTC().AddDate(0, 0, -days)
	rows, err := h.storage.Metrics().ListByPatient(ctx, middleware.GetUserID(ctx), since)
	if err != nil {
		respond.Internal(w, "list checkins", err)
		return
	}
	if rows == nil {
		rows = []*models.DailyMetric{}
	}
	respond.OK(w, rows)
}

// Insight scores today's row, or the defaults when there is none, and adds
// the tip of the day.
func (h *Handler) Insight(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now().UTC()
	today, err := h.storage.Metrics().GetDay(ctx, middleware.GetUserID(ctx), models.DayOf(now))
	if err != nil {
		respond.Internal(w, "get today's metric", err)
		return
	}
	respond.OK(w, risk.DailyInsight(ReadinessInputOf(today), now))
}

// ReadinessInputOf maps a stored row onto the readiness model. A nil row
// yields all defaults.
func ReadinessInputOf(m *models.DailyMetric) risk.ReadinessInput {
	if m == nil {
		return risk.ReadinessInput{}
	}
	return risk.ReadinessInput{
		EnergyLevel: m.EnergyLevel,
		HeartRate:   m.RestingHR,
		SleepHours:  m.SleepHours,
		HRVMs:       m.HRVMs,
	}
}
