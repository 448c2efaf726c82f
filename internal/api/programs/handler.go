// Package programs serves rehab programs, their schedules and session completion.
package programs

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/risk"
	"github.com/cenk2025/hardpath/internal/storage"
)

const (
	maxDurationWeeks = 52
	maxNameLength    = 100
)

// Handler handles program endpoints for patients and the care team.
type Handler struct {
	storage storage.Storage
	now     func() time.Time
}

// NewHandler creates a new program handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store, now: time.Now}
}

// PlanResponse is the patient's view of the assigned program.
type PlanResponse struct {
	Program   *models.RehabProgram `json:"program"`
	Sessions  []*models.Session    `json:"sessions"`
	Adherence risk.Adherence       `json:"adherence"`
}

// AdherenceOf scores the sessions scheduled on or before today.
func AdherenceOf(sessions []*models.Session, today string) risk.Adherence {
	records := make([]risk.SessionRecord, 0, len(sessions))
	for _, s := range sessions {
		if s.Date > today {
			continue
		}
		records = append(records, risk.SessionRecord{Date: s.Date, Completed: s.Completed})
	}
	return risk.AnalyzeAdherence(records)
}

// Plan returns the caller's program, schedule and adherence.
func (h *Handler) Plan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	patientID := middleware.GetUserID(ctx)

	program, err := h.storage.Programs().GetAssigned(ctx, patientID)
	if err != nil {
		respond.Internal(w, "get assigned program", err)
		return
	}
	sessions, err := h.storage.Programs().ListSessions(ctx, patientID, "", "")
	if err != nil {
		respond.Internal(w, "list sessions", err)
		return
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	respond.OK(w, PlanResponse{
		Program:   program,
		Sessions:  sessions,
		Adherence: AdherenceOf(sessions, models.DayOf(h.now().UTC())),
	})
}

// CompleteSession marks one of the caller's sessions as done.
func (h *Handler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.storage.Programs().CompleteSession(ctx, chi.URLParam(r, "id"), middleware.GetUserID(ctx), h.now().UTC())
	if errors.Is(err, storage.ErrNotFound) {
		respond.NotFound(w, "session not found")
		return
	}
	if err != nil {
		respond.Internal(w, "complete session", err)
		return
	}
	respond.NoContent(w)
}

// ProgramRequest is the body of POST /clinician/programs.
type ProgramRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationWeeks   int    `json:"duration_weeks"`
	Intensity       string `json:"intensity"`
	SessionsPerWeek int    `json:"sessions_per_week"`
}

// Validate checks the program definition.
func (req *ProgramRequest) Validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if len([]rune(req.Name)) > maxNameLength {
		return "name must be at most 100 characters"
	}
	if req.DurationWeeks < 1 || req.DurationWeeks > maxDurationWeeks {
		return "duration_weeks must be between 1 and 52"
	}
	if req.SessionsPerWeek < 1 || req.SessionsPerWeek > 7 {
		return "sessions_per_week must be between 1 and 7"
	}
	if !models.Intensity(req.Intensity).IsValid() {
		return "intensity must be one of: low, moderate, high"
	}
	return ""
}

// ListPrograms returns every program.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := h.storage.Programs().List(r.Context())
	if err != nil {
		respond.Internal(w, "list programs", err)
		return
	}
	if programs == nil {
		programs = []*models.RehabProgram{}
	}
	respond.OK(w, programs)
}

// CreateProgram stores a new program authored by the caller.
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req ProgramRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		respond.Validation(w, msg)
		return
	}

	ctx := r.Context()
	p := &models.RehabProgram{
		Name:          req.Name,
		Description:   strings.TrimSpace(req.Description),
		DurationWeeks: req.DurationWeeks,
		Intensity:     models.Intensity(req.Intensity),
		SessionsPerWk: req.SessionsPerWeek,
		CreatedBy:     middleware.GetUserID(ctx),
		CreatedAt:     h.now().UTC(),
	}
	if err := h.storage.Programs().Create(ctx, p); err != nil {
		respond.Internal(w, "create program", err)
		return
	}
	respond.Created(w, p)
}

// AssignRequest is the body of POST /clinician/programs/{id}/assign.
type AssignRequest struct {
	PatientID string `json:"patient_id"`
	StartDate string `json:"start_date"`
}

// Assign makes the program the patient's active plan and schedules its
// sessions from start_date, today when omitted.
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var req AssignRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if req.PatientID == "" {
		respond.Validation(w, "patient_id is required")
		return
	}
	start := h.now().UTC()
	if req.StartDate != "" {
		parsed, err := time.Parse(models.DayLayout, req.StartDate)
		if err != nil {
			respond.Validation(w, "start_date must be YYYY-MM-DD")
			return
		}
		start = parsed
	}

	ctx := r.Context()
	program, err := h.storage.Programs().GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Internal(w, "get program", err)
		return
	}
	if program == nil {
		respond.NotFound(w, "program not found")
		return
	}
	patient, err := h.storage.Users().GetByID(ctx, req.PatientID)
	if err != nil {
		respond.Internal(w, "get patient", err)
		return
	}
	if patient == nil || patient.Role != models.RolePatient {
		respond.NotFound(w, "patient not found")
		return
	}

	sessions := program.Schedule(start)
	if err := h.storage.Programs().Assign(ctx, program.ID, patient.ID, sessions); err != nil {
		respond.Internal(w, "assign program", err)
		return
	}
	respond.Created(w, PlanResponse{
		Program:   program,
		Sessions:  sessions,
		Adherence: AdherenceOf(sessions, models.DayOf(h.now().UTC())),
	})
}
