package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cenk2025/hardpath/internal/models"
)

type sqliteMedicationRepo struct {
	db *sql.DB
}

const medicationColumns = `id, patient_id, name, dose, time_of_day, reminder, created_at, updated_at`

func scanMedication(row scanner) (*models.Medication, error) {
	m := &models.Medication{}
	var reminder int
	if err := row.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dose, &m.TimeOfDay, &reminder, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Reminder = reminder != 0
	return m, nil
}

func (r *sqliteMedicationRepo) Create(ctx context.Context, m *models.Medication) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	m.CreatedAt, m.UpdatedAt = now, now
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO medications (`+medicationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.PatientID, m.Name, m.Dose, m.TimeOfDay, boolToInt(m.Reminder), now, now)
	if err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}
	return nil
}

func (r *sqliteMedicationRepo) GetByID(ctx context.Context, id string) (*models.Medication, error) {
	m, err := scanMedication(r.db.QueryRowContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medication: %w", err)
	}
	return m, nil
}

func (r *sqliteMedicationRepo) ListByPatient(ctx context.Context, patientID string) ([]*models.Medication, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE patient_id = ? ORDER BY time_of_day, name`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	defer rows.Close()

	var out []*models.Medication
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medication: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *sqliteMedicationRepo) Update(ctx context.Context, m *models.Medication) error {
	m.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE medications SET name = ?, dose = ?, time_of_day = ?, reminder = ?, updated_at = ?
		WHERE id = ? AND patient_id = ?`,
		m.Name, m.Dose, m.TimeOfDay, boolToInt(m.Reminder), m.UpdatedAt, m.ID, m.PatientID)
	if err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update medication %s: %w", m.ID, ErrNotFound)
	}
	return nil
}

func (r *sqliteMedicationRepo) Delete(ctx context.Context, id, patientID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medications WHERE id = ? AND patient_id = ?`, id, patientID)
	if err != nil {
		return fmt.Errorf("delete medication: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("delete medication %s: %w", id, ErrNotFound)
	}
	return nil
}
