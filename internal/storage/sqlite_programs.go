package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cenk2025/hardpath/internal/models"
)

type sqliteProgramRepo struct {
	db *sql.DB
}

const programColumns = `p.id, p.name, p.description, p.duration_weeks, p.intensity, p.sessions_per_week, p.created_by, p.created_at`

func scanProgram(row scanner) (*models.RehabProgram, error) {
	p := &models.RehabProgram{}
	var desc sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &desc, &p.DurationWeeks, &p.Intensity, &p.SessionsPerWk, &p.CreatedBy, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Description = desc.String
	return p, nil
}

func (r *sqliteProgramRepo) Create(ctx context.Context, p *models.RehabProgram) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO rehab_programs (id, name, description, duration_weeks, intensity, sessions_per_week, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullString(p.Description), p.DurationWeeks, p.Intensity, p.SessionsPerWk, p.CreatedBy, utc(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert rehab program: %w", err)
	}
	return nil
}

func (r *sqliteProgramRepo) GetByID(ctx context.Context, id string) (*models.RehabProgram, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx, `SELECT `+programColumns+` FROM rehab_programs p WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rehab program: %w", err)
	}
	return p, nil
}

func (r *sqliteProgramRepo) List(ctx context.Context) ([]*models.RehabProgram, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+programColumns+` FROM rehab_programs p ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("list rehab programs: %w", err)
	}
	defer rows.Close()

	var out []*models.RehabProgram
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rehab program: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *sqliteProgramRepo) Assign(ctx context.Context, programID, patientID string, sessions []*models.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assign: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO program_assignments (patient_id, program_id, assigned_at) VALUES (?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET program_id = excluded.program_id, assigned_at = excluded.assigned_at`,
		patientID, programID, utc(time.Now()))
	if err != nil {
		return fmt.Errorf("upsert assignment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE patient_id = ? AND completed = 0`, patientID); err != nil {
		return fmt.Errorf("clear pending sessions: %w", err)
	}

	for _, s := range sessions {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		s.PatientID, s.ProgramID = patientID, programID
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (id, patient_id, program_id, date, completed) VALUES (?, ?, ?, ?, 0)`,
			s.ID, patientID, programID, s.Date)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assign: %w", err)
	}
	return nil
}

func (r *sqliteProgramRepo) GetAssigned(ctx context.Context, patientID string) (*models.RehabProgram, error) {
	p, err := scanProgram(r.db.QueryRowContext(ctx, `
		SELECT `+programColumns+`
		FROM rehab_programs p JOIN program_assignments a ON a.program_id = p.id
		WHERE a.patient_id = ?`, patientID))
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get assigned program: %w", err)
	}
	return p, nil
}

// ListSessions returns sessions scheduled between from and to inclusive (YYYY-MM-DD).
// Empty bounds are open.
func (r *sqliteProgramRepo) ListSessions(ctx context.Context, patientID, from, to string) ([]*models.Session, error) {
	if to == "" {
		to = "9999-12-31"
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, patient_id, program_id, date, completed, completed_at
		FROM sessions WHERE patient_id = ? AND date >= ? AND date <= ?
		ORDER BY date, id`, patientID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		s := &models.Session{}
		var completed int
		var completedAt sql.NullTime
		if err := rows.Scan(&s.ID, &s.PatientID, &s.ProgramID, &s.Date, &completed, &completedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Completed = completed != 0
		s.CompletedAt = timeFromNull(completedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sqliteProgramRepo) CompleteSession(ctx context.Context, id, patientID string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET completed = 1, completed_at = ? WHERE id = ? AND patient_id = ?`,
		utc(at), id, patientID)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("complete session %s: %w", id, ErrNotFound)
	}
	return nil
}
