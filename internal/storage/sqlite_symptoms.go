package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/security"
)

type sqliteSymptomRepo struct {
	db     *sql.DB
	cipher *security.FieldCipher
}

func (r *sqliteSymptomRepo) Create(ctx context.Context, rep *models.SymptomReport) error {
	if rep.ID == "" {
		rep.ID = uuid.New().String()
	}
	if rep.Timestamp.IsZero() {
		rep.Timestamp = time.Now().UTC()
	}
	tags, err := json.Marshal(rep.Symptoms)
	if err != nil {
		return fmt.Errorf("marshal symptoms: %w", err)
	}
	notes, err := r.cipher.EncryptString(rep.Notes)
	if err != nil {
		return fmt.Errorf("encrypt notes: %w", err)
	}

	query := `
		INSERT INTO symptom_reports (id, patient_id, symptoms, severity, notes, reported_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		rep.ID, rep.PatientID, string(tags), rep.Severity, nullString(notes), utc(rep.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert symptom report: %w", err)
	}
	return nil
}

func (r *sqliteSymptomRepo) list(ctx context.Context, where string, args ...any) ([]*models.SymptomReport, error) {
	query := `
		SELECT s.id, s.patient_id, ` + patientNameExpr + `, s.symptoms, s.severity, s.notes, s.reported_at
		FROM symptom_reports s JOIN users u ON u.id = s.patient_id
		WHERE ` + where + `
		ORDER BY s.reported_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list symptom reports: %w", err)
	}
	defer rows.Close()

	var out []*models.SymptomReport
	for rows.Next() {
		rep := &models.SymptomReport{}
		var tags string
		var notes sql.NullString
		if err := rows.Scan(&rep.ID, &rep.PatientID, &rep.PatientName, &tags, &rep.Severity, &notes, &rep.Timestamp); err != nil {
			return nil, fmt.Errorf("scan symptom report: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &rep.Symptoms); err != nil {
			return nil, fmt.Errorf("unmarshal symptoms: %w", err)
		}
		if rep.Notes, err = r.cipher.DecryptString(notes.String); err != nil {
			return nil, fmt.Errorf("decrypt notes of %s: %w", rep.ID, err)
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r *sqliteSymptomRepo) ListByPatient(ctx context.Context, patientID string, since time.Time) ([]*models.SymptomReport, error) {
	return r.list(ctx, `s.patient_id = ? AND s.reported_at >= ?`, patientID, utc(since))
}

func (r *sqliteSymptomRepo) ListSince(ctx context.Context, since time.Time) ([]*models.SymptomReport, error) {
	return r.list(ctx, `s.reported_at >= ?`, utc(since))
}
