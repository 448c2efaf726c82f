// Package bloodpressure serves manual blood-pressure logging.
package bloodpressure

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cenk2025/hardpath/internal/api/checkins"
	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/storage"
)

const (
	minSystolic    = 60
	maxSystolic    = 250
	minDiastolic   = 40
	maxDiastolic   = 150
	maxNotesLength = 500
)

// Handler handles blood-pressure endpoints.
type Handler struct {
	storage storage.Storage
	now     func() time.Time
}

// NewHandler creates a new blood-pressure handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store, now: time.Now}
}

// CreateRequest is the body of POST /blood-pressure. An empty period is
// derived from the time of entry.
type CreateRequest struct {
	Systolic  int    `json:"systolic"`
	Diastolic int    `json:"diastolic"`
	Period    string `json:"period"`
	Notes     string `json:"notes"`
}

// Reading is a stored log with its display classification.
type Reading struct {
	*models.BloodPressureLog
	Level models.BPLevel `json:"level"`
}

// Validate checks ranges, ordering and the period value.
func (req *CreateRequest) Validate() string {
	if req.Systolic < minSystolic || req.Systolic > maxSystolic {
		return "systolic must be between 60 and 250"
	}
	if req.Diastolic < minDiastolic || req.Diastolic > maxDiastolic {
		return "diastolic must be between 40 and 150"
	}
	if req.Diastolic >= req.Systolic {
		return "systolic must be greater than diastolic"
	}
	switch models.BPPeriod(req.Period) {
	case "", models.PeriodMorning, models.PeriodEvening:
	default:
		return "period must be morning or evening"
	}
	if len([]rune(req.Notes)) > maxNotesLength {
		return "notes must be at most 500 characters"
	}
	return ""
}

func readingOf(b *models.BloodPressureLog) Reading {
	return Reading{BloodPressureLog: b, Level: b.Level()}
}

// Create stores a manual reading for the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		respond.Validation(w, msg)
		return
	}

	now := h.now()
	period := models.BPPeriod(req.Period)
	if period == "" {
		period = models.PeriodAt(now)
	}
	ctx := r.Context()
	entry := &models.BloodPressureLog{
		PatientID:  middleware.GetUserID(ctx),
		Systolic:   req.Systolic,
		Diastolic:  req.Diastolic,
		Period:     period,
		Notes:      strings.TrimSpace(req.Notes),
		RecordedAt: now.UTC(),
	}
	if err := h.storage.BloodPressure().Create(ctx, entry); err != nil {
		respond.Internal(w, "store blood pressure", err)
		return
	}
	respond.Created(w, readingOf(entry))
}

// List returns the caller's readings for the last ?days= days, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	days, ok := checkins.HistoryDays(r)
	if !ok {
		respond.Validation(w, "days must be between 1 and 365")
		return
	}
	ctx := r.Context()
	logs, err := h.storage.BloodPressure().ListByPatient(ctx, middleware.GetUserID(ctx), h.now().UTC().AddDate(0, 0, -days))
	if err != nil {
		respond.Internal(w, "list blood pressure", err)
		return
	}
	readings := make([]Reading, 0, len(logs))
	for _, b := range logs {
		readings = append(readings, readingOf(b))
	}
	respond.OK(w, readings)
}

// Delete removes one of the caller's readings.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.storage.BloodPressure().Delete(ctx, chi.URLParam(r, "id"), middleware.GetUserID(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		respond.NotFound(w, "reading not found")
		return
	}
	if err != nil {
		respond.Internal(w, "delete blood pressure", err)
		return
	}
	respond.NoContent(w)
}
