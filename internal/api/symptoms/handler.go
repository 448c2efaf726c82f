// Package symptoms serves symptom reporting and triages each new report.
package symptoms

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cenk2025/hardpath/internal/api/checkins"
	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/notifier"
	"github.com/cenk2025/hardpath/internal/realtime"
	"github.com/cenk2025/hardpath/internal/risk"
	"github.com/cenk2025/hardpath/internal/storage"
)

// MaxNotesLength bounds the free-text notes of a report.
const MaxNotesLength = 2000

// Dispatcher sends care-team notifications in the background.
type Dispatcher interface {
	Go(n *notifier.Notification)
}

// Broadcaster pushes realtime events to connected users by role.
type Broadcaster interface {
	SendToRoles(eventType string, data any, roles ...models.Role)
}

// Handler handles symptom endpoints.
type Handler struct {
	storage storage.Storage
	notify  Dispatcher
	events  Broadcaster
	now     func() time.Time
}

// NewHandler creates a symptom handler. notify and events may be nil.
func NewHandler(store storage.Storage, notify Dispatcher, events Broadcaster) *Handler {
	return &Handler{storage: store, notify: notify, events: events, now: time.Now}
}

// CreateRequest is the body of POST /symptoms.
type CreateRequest struct {
	Symptoms []string `json:"symptoms"`
	Severity string   `json:"severity"`
	Notes    string   `json:"notes"`
}

// CreateResponse returns the stored report and the triage of the last 24 hours.
type CreateResponse struct {
	Report *models.SymptomReport `json:"report"`
	Risk   risk.SymptomRisk      `json:"risk"`
}

// AlertEvent is the realtime payload pushed to the care team.
type AlertEvent struct {
	PatientID   string           `json:"patient_id"`
	PatientName string           `json:"patient_name"`
	ReportID    string           `json:"report_id"`
	Risk        risk.SymptomRisk `json:"risk"`
	Color       string           `json:"color"`
}

// Validate checks the request and returns the typed tags.
func (req *CreateRequest) Validate() ([]models.SymptomType, string) {
	if len(req.Symptoms) == 0 {
		return nil, "at least one symptom is required"
	}
	seen := make(map[models.SymptomType]bool, len(req.Symptoms))
	tags := make([]models.SymptomType, 0, len(req.Symptoms))
	for _, s := range req.Symptoms {
		t := models.SymptomType(strings.TrimSpace(s))
		if !t.IsValid() {
			return nil, "unknown symptom: " + s
		}
		if !seen[t] {
			seen[t] = true
			tags = append(tags, t)
		}
	}
	if !models.SymptomSeverity(req.Severity).IsValid() {
		return nil, "severity must be one of: mild, moderate, severe"
	}
	if len([]rune(req.Notes)) > MaxNotesLength {
		return nil, "notes must be at most 2000 characters"
	}
	return tags, ""
}

// Create stores a report, triages the patient's last 24 hours and alerts
// the care team when the result is flagged.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	tags, msg := req.Validate()
	if msg != "" {
		respond.Validation(w, msg)
		return
	}

	ctx := r.Context()
	patientID := middleware.GetUserID(ctx)
	now := h.now().UTC()

	report := &models.SymptomReport{
		ID:        uuid.New().String(),
		PatientID: patientID,
		Symptoms:  tags,
		Severity:  models.SymptomSeverity(req.Severity),
		Notes:     strings.TrimSpace(req.Notes),
		Timestamp: now,
	}
	if err := h.storage.Symptoms().Create(ctx, report); err != nil {
		respond.Internal(w, "store symptom report", err)
		return
	}

	recent, err := h.storage.Symptoms().ListByPatient(ctx, patientID, now.Add(-risk.SymptomWindow))
	if err != nil {
		respond.Internal(w, "list recent symptoms", err)
		return
	}
	flagged := risk.FlagSymptoms(recent, now)

	if flagged.Flagged {
		h.alertCareTeam(r, report, flagged)
	}
	respond.Created(w, CreateResponse{Report: report, Risk: flagged})
}

func (h *Handler) alertCareTeam(r *http.Request, report *models.SymptomReport, flagged risk.SymptomRisk) {
	name := middleware.GetEmail(r.Context())
	if user, err := h.storage.Users().GetByID(r.Context(), report.PatientID); err != nil {
		log.Printf("symptom alert: get patient %s: %v", report.PatientID, err)
	} else if user != nil {
		name = user.DisplayName()
	}

	log.Printf("symptom report %s flagged %s for patient %s", report.ID, flagged.Level, report.PatientID)

	if h.events != nil {
		h.events.SendToRoles(realtime.EventAlertSymptom, AlertEvent{
			PatientID:   report.PatientID,
			PatientName: name,
			ReportID:    report.ID,
			Risk:        flagged,
			Color:       risk.Color(flagged.Level),
		}, models.RoleClinician, models.RoleAdmin)
	}
	if h.notify != nil && flagged.Level == risk.LevelCritical {
		h.notify.Go(notifier.NewSymptomNotification(report, name, flagged))
	}
}

// List returns the caller's reports for the last ?days= days.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	days, ok := checkins.HistoryDays(r)
	if !ok {
		respond.Validation(w, "days must be between 1 and 365")
		return
	}
	ctx := r.Context()
	reports, err := h.storage.Symptoms().ListByPatient(ctx, middleware.GetUserID(ctx), h.now().UTC().AddDate(0, 0, -days))
	if err != nil {
		respond.Internal(w, "list symptoms", err)
		return
	}
	if reports == nil {
		reports = []*models.SymptomReport{}
	}
	respond.OK(w, reports)
}
