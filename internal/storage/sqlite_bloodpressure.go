package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cenk2025/hardpath/internal/models"
)

type sqliteBloodPressureRepo struct {
	db *sql.DB
}

func (r *sqliteBloodPressureRepo) Create(ctx context.Context, b *models.BloodPressureLog) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.RecordedAt.IsZero() {
		b.RecordedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO blood_pressure_logs (id, patient_id, systolic, diastolic, period, notes, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		b.ID, b.PatientID, b.Systolic, b.Diastolic, b.Period, nullString(b.Notes), utc(b.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert blood pressure log: %w", err)
	}
	return nil
}

func (r *sqliteBloodPressureRepo) list(ctx context.Context, where string, args ...any) ([]*models.BloodPressureLog, error) {
	query := `
		SELECT b.id, b.patient_id, ` + patientNameExpr + `, b.systolic, b.diastolic, b.period, b.notes, b.recorded_at
		FROM blood_pressure_logs b JOIN users u ON u.id = b.patient_id
		WHERE ` + where + `
		ORDER BY b.recorded_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list blood pressure logs: %w", err)
	}
	defer rows.Close()

	var out []*models.BloodPressureLog
	for rows.Next() {
		b := &models.BloodPressureLog{}
		var notes sql.NullString
		if err := rows.Scan(&b.ID, &b.PatientID, &b.PatientName, &b.Systolic, &b.Diastolic, &b.Period, &notes, &b.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan blood pressure log: %w", err)
		}
		b.Notes = notes.String
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *sqliteBloodPressureRepo) ListByPatient(ctx context.Context, patientID string, since time.Time) ([]*models.BloodPressureLog, error) {
	return r.list(ctx, `b.patient_id = ? AND b.recorded_at >= ?`, patientID, utc(since))
}

func (r *sqliteBloodPressureRepo) ListHighSystolic(ctx context.Context, since time.Time, atLeast int) ([]*models.BloodPressureLog, error) {
	return r.list(ctx, `b.recorded_at >= ? AND b.systolic >= ?`, utc(since), atLeast)
}

func (r *sqliteBloodPressureRepo) Delete(ctx context.Context, id, patientID string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM blood_pressure_logs WHERE id = ? AND patient_id = ?", id, patientID)
	if err != nil {
		return fmt.Errorf("delete blood pressure log: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("delete blood pressure log %s: %w", id, ErrNotFound)
	}
	return nil
}
