package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cenk2025/hardpath/internal/models"
)

type sqliteMetricRepo struct {
	db *sql.DB
}

const metricColumns = `m.id, m.patient_id, ` + patientNameExpr + `, m.day, m.recorded_at, m.resting_hr, m.hrv_ms,
	m.sleep_hours, m.energy_level, m.readiness_score, m.symptoms, m.source, m.updated_at`

const metricFrom = ` FROM daily_metrics m JOIN users u ON u.id = m.patient_id `

func scanMetric(row scanner) (*models.DailyMetric, error) {
	m := &models.DailyMetric{}
	var hr, hrv, energy, readiness sql.NullInt64
	var sleep sql.NullFloat64
	var symptoms string
	err := row.Scan(
		&m.ID, &m.PatientID, &m.PatientName, &m.Day, &m.RecordedAt, &hr, &hrv,
		&sleep, &energy, &readiness, &symptoms, &m.Source, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.RestingHR = intFromNull(hr)
	m.HRVMs = intFromNull(hrv)
	m.SleepHours = floatFromNull(sleep)
	m.EnergyLevel = intFromNull(energy)
	m.ReadinessScore = intFromNull(readiness)
	if err := json.Unmarshal([]byte(symptoms), &m.Symptoms); err != nil {
		return nil, fmt.Errorf("unmarshal symptoms: %w", err)
	}
	return m, nil
}

func prepareMetric(m *models.DailyMetric) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if m.RecordedAt.IsZero() {
		m.RecordedAt = now
	}
	if m.Day == "" {
		m.Day = models.DayOf(m.RecordedAt)
	}
	m.UpdatedAt = now
}

func (r *sqliteMetricRepo) UpsertCheckin(ctx context.Context, m *models.DailyMetric) error {
	prepareMetric(m)
	if m.Symptoms == nil {
		m.Symptoms = []string{}
	}
	symptoms, err := json.Marshal(m.Symptoms)
	if err != nil {
		return fmt.Errorf("marshal symptoms: %w", err)
	}

	query := `
		INSERT INTO daily_metrics (id, patient_id, day, recorded_at, resting_hr, hrv_ms, sleep_hours,
			energy_level, readiness_score, symptoms, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id, day) DO UPDATE SET
			recorded_at = excluded.recorded_at,
			resting_hr = COALESCE(excluded.resting_hr, daily_metrics.resting_hr),
			hrv_ms = COALESCE(excluded.hrv_ms, daily_metrics.hrv_ms),
			sleep_hours = COALESCE(excluded.sleep_hours, daily_metrics.sleep_hours),
			energy_level = excluded.energy_level,
			readiness_score = excluded.readiness_score,
			symptoms = excluded.symptoms,
			source = excluded.source,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query,
		m.ID, m.PatientID, m.Day, utc(m.RecordedAt), nullInt(m.RestingHR), nullInt(m.HRVMs),
		nullFloat(m.SleepHours), nullInt(m.EnergyLevel), nullInt(m.ReadinessScore), string(symptoms),
		models.MetricSourceCheckin, utc(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert checkin metric: %w", err)
	}
	return nil
}

func (r *sqliteMetricRepo) UpsertWearable(ctx context.Context, m *models.DailyMetric) error {
	prepareMetric(m)

	query := `
		INSERT INTO daily_metrics (id, patient_id, day, recorded_at, resting_hr, hrv_ms, sleep_hours,
			source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id, day) DO UPDATE SET
			resting_hr = COALESCE(excluded.resting_hr, daily_metrics.resting_hr),
			hrv_ms = COALESCE(excluded.hrv_ms, daily_metrics.hrv_ms),
			sleep_hours = COALESCE(excluded.sleep_hours, daily_metrics.sleep_hours),
			source = excluded.source,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.PatientID, m.Day, utc(m.RecordedAt), nullInt(m.RestingHR), nullInt(m.HRVMs),
		nullFloat(m.SleepHours), models.MetricSourceWearable, utc(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert wearable metric: %w", err)
	}
	return nil
}

func (r *sqliteMetricRepo) GetDay(ctx context.Context, patientID, day string) (*models.DailyMetric, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+metricColumns+metricFrom+`WHERE m.patient_id = ? AND m.day = ?`, patientID, day)
	m, err := scanMetric(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get daily metric: %w", err)
	}
	return m, nil
}

func (r *sqliteMetricRepo) list(ctx context.Context, where string, args ...any) ([]*models.DailyMetric, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+metricColumns+metricFrom+`WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list daily metrics: %w", err)
	}
	defer rows.Close()

	var out []*models.DailyMetric
	for rows.Next() {
		m, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan daily metric: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *sqliteMetricRepo) ListByPatient(ctx context.Context, patientID string, since time.Time) ([]*models.DailyMetric, error) {
	return r.list(ctx, `m.patient_id = ? AND m.recorded_at >= ? ORDER BY m.day`, patientID, utc(since))
}

func (r *sqliteMetricRepo) ListSince(ctx context.Context, since time.Time) ([]*models.DailyMetric, error) {
	return r.list(ctx, `m.recorded_at >= ? ORDER BY m.recorded_at DESC`, utc(since))
}

func (r *sqliteMetricRepo) ListHighHeartRate(ctx context.Context, since time.Time, over int) ([]*models.DailyMetric, error) {
	return r.list(ctx, `m.recorded_at >= ? AND m.resting_hr > ? ORDER BY m.recorded_at DESC`, utc(since), over)
}

func (r *sqliteMetricRepo) ListLowReadiness(ctx context.Context, since time.Time, under int) ([]*models.DailyMetric, error) {
	return r.list(ctx, `m.recorded_at >= ? AND m.readiness_score < ? ORDER BY m.recorded_at DESC`, utc(since), under)
}
