// Package medications serves the patient's medication list.
package medications

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/storage"
)

const (
	maxNameLength = 100
	maxDoseLength = 50
)

// Handler handles medication endpoints.
type Handler struct {
	storage storage.Storage
}

// NewHandler creates a new medication handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// Request is the body of POST /medications and PUT /medications/{id}.
type Request struct {
	Name      string `json:"name"`
	Dose      string `json:"dose"`
	TimeOfDay string `json:"time_of_day"`
	Reminder  bool   `json:"reminder"`
}

// Validate trims the fields in place and checks them.
func (req *Request) Validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Dose = strings.TrimSpace(req.Dose)
	req.TimeOfDay = strings.TrimSpace(req.TimeOfDay)

	if req.Name == "" {
		return "name is required"
	}
	if len([]rune(req.Name)) > maxNameLength {
		return "name must be at most 100 characters"
	}
	if len([]rune(req.Dose)) > maxDoseLength {
		return "dose must be at most 50 characters"
	}
	if req.TimeOfDay == "" {
		req.TimeOfDay = "08:00"
	}
	if _, err := time.Parse("15:04", req.TimeOfDay); err != nil || len(req.TimeOfDay) != 5 {
		return "time_of_day must be HH:MM"
	}
	return ""
}

func (req *Request) apply(m *models.Medication) {
	m.Name = req.Name
	m.Dose = req.Dose
	m.TimeOfDay = req.TimeOfDay
	m.Reminder = req.Reminder
}

// List returns the caller's medications ordered by time of day.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meds, err := h.storage.Medications().ListByPatient(ctx, middleware.GetUserID(ctx))
	if err != nil {
		respond.Internal(w, "list medications", err)
		return
	}
	if meds == nil {
		meds = []*models.Medication{}
	}
	respond.OK(w, meds)
}

// Create adds a medication for the caller.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !respond.Decode(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		respond.Validation(w, msg)
		return
	}

	ctx := r.Context()
	m := &models.Medication{PatientID: middleware.GetUserID(ctx)}
	req.apply(m)
	if err := h.storage.Medications().Create(ctx, m); err != nil {
		respond.Internal(w, "create medication", err)
		return
	}
	respond.Created(w, m)
}

// Update replaces one of the caller's medications.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req Request
	if !respond.Decode(w, r, &req) {
		return
	}
	if msg := req.Validate(); msg != "" {
		respond.Validation(w, msg)
		return
	}

	ctx := r.Context()
	m, err := h.storage.Medications().GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		respond.Internal(w, "get medication", err)
		return
	}
	if m == nil || m.PatientID != middleware.GetUserID(ctx) {
		respond.NotFound(w, "medication not found")
		return
	}

	req.apply(m)
	if err := h.storage.Medications().Update(ctx, m); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.NotFound(w, "medication not found")
			return
		}
		respond.Internal(w, "update medication", err)
		return
	}
	respond.OK(w, m)
}

// Delete removes one of the caller's medications.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.storage.Medications().Delete(ctx, chi.URLParam(r, "id"), middleware.GetUserID(ctx))
	if errors.Is(err, storage.ErrNotFound) {
		respond.NotFound(w, "medication not found")
		return
	}
	if err != nil {
		respond.Internal(w, "delete medication", err)
		return
	}
	respond.NoContent(w)
}
