// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/cenk2025/hardpath/internal/models"
)

// ErrNotFound is returned by mutations that target a row that does not exist.
// Lookups return (nil, nil) instead.
var ErrNotFound = errors.New("not found")

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// EnsureAdminUser creates a bootstrap admin when no users exist.
	EnsureAdminUser() error

	Users() UserRepository
	Tokens() TokenRepository
	Consents() ConsentRepository
	Metrics() MetricRepository
	Symptoms() SymptomRepository
	BloodPressure() BloodPressureRepository
	Wearables() WearableRepository
	Resolutions() ResolutionRepository
	Messages() MessageRepository
	Medications() MedicationRepository
	Programs() ProgramRepository
}

// UserRepository defines operations for account management.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// Delete removes the user and, through foreign keys, every row they own.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}

// TokenRepository defines operations for refresh token management.
type TokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// ConsentRepository stores onboarding consent.
type ConsentRepository interface {
	Upsert(ctx context.Context, consent *models.Consent) error
	Get(ctx context.Context, patientID string) (*models.Consent, error)
}

// MetricRepository stores one DailyMetric per (patient, day).
type MetricRepository interface {
	// UpsertCheckin writes the patient-entered columns of the day row.
	// Resting HR, HRV and sleep are written when supplied and otherwise keep
	// the stored wearable value.
	UpsertCheckin(ctx context.Context, m *models.DailyMetric) error
	// UpsertWearable writes resting HR, HRV and sleep. Nil fields keep the
	// stored value. Energy level, readiness and symptoms are never touched.
	UpsertWearable(ctx context.Context, m *models.DailyMetric) error
	GetDay(ctx context.Context, patientID, day string) (*models.DailyMetric, error)
	ListByPatient(ctx context.Context, patientID string, since time.Time) ([]*models.DailyMetric, error)
	// ListSince returns every row recorded since the given time, joined to the patient name.
	ListSince(ctx context.Context, since time.Time) ([]*models.DailyMetric, error)
	ListHighHeartRate(ctx context.Context, since time.Time, over int) ([]*models.DailyMetric, error)
	ListLowReadiness(ctx context.Context, since time.Time, under int) ([]*models.DailyMetric, error)
}

// SymptomRepository stores immutable symptom reports.
type SymptomRepository interface {
	Create(ctx context.Context, r *models.SymptomReport) error
	ListByPatient(ctx context.Context, patientID string, since time.Time) ([]*models.SymptomReport, error)
	ListSince(ctx context.Context, since time.Time) ([]*models.SymptomReport, error)
}

// BloodPressureRepository stores blood-pressure readings.
type BloodPressureRepository interface {
	Create(ctx context.Context, b *models.BloodPressureLog) error
	ListByPatient(ctx context.Context, patientID string, since time.Time) ([]*models.BloodPressureLog, error)
	ListHighSystolic(ctx context.Context, since time.Time, atLeast int) ([]*models.BloodPressureLog, error)
	Delete(ctx context.Context, id, patientID string) error
}

// WearableRepository stores provider links keyed by (patient, provider).
type WearableRepository interface {
	UpsertPending(ctx context.Context, patientID string, provider models.Provider, sessionID string) error
	MarkConnected(ctx context.Context, patientID string, provider models.Provider, vendorUserID string, at time.Time) error
	MarkDisconnected(ctx context.Context, patientID string, provider models.Provider) error
	TouchSync(ctx context.Context, patientID string, provider models.Provider, at time.Time) error
	Get(ctx context.Context, patientID string, provider models.Provider) (*models.WearableConnection, error)
	ListByPatient(ctx context.Context, patientID string) ([]*models.WearableConnection, error)
	Delete(ctx context.Context, patientID string, provider models.Provider) error
}

// ResolutionRepository stores clinician acknowledgement of derived alerts.
type ResolutionRepository interface {
	Resolve(ctx context.Context, r *models.AlertResolution) error
	Reopen(ctx context.Context, alertKey string) error
	List(ctx context.Context) ([]*models.AlertResolution, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// MessageRepository stores direct messages.
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	ListConversation(ctx context.Context, userA, userB string, limit int) ([]*models.Message, error)
	MarkRead(ctx context.Context, receiverID, senderID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
}

// MedicationRepository stores a patient's medication list.
type MedicationRepository interface {
	Create(ctx context.Context, m *models.Medication) error
	GetByID(ctx context.Context, id string) (*models.Medication, error)
	ListByPatient(ctx context.Context, patientID string) ([]*models.Medication, error)
	Update(ctx context.Context, m *models.Medication) error
	Delete(ctx context.Context, id, patientID string) error
}

// ProgramRepository stores rehab programs, assignments and session schedules.
type ProgramRepository interface {
	Create(ctx context.Context, p *models.RehabProgram) error
	GetByID(ctx context.Context, id string) (*models.RehabProgram, error)
	List(ctx context.Context) ([]*models.RehabProgram, error)
	// Assign makes programID the patient's active program and replaces any
	// incomplete sessions with the given schedule.
	Assign(ctx context.Context, programID, patientID string, sessions []*models.Session) error
	GetAssigned(ctx context.Context, patientID string) (*models.RehabProgram, error)
	ListSessions(ctx context.Context, patientID, from, to string) ([]*models.Session, error)
	CompleteSession(ctx context.Context, id, patientID string, at time.Time) error
}
