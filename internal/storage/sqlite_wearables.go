package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cenk2025/hardpath/internal/models"
)

type sqliteWearableRepo struct {
	db *sql.DB
}

const wearableColumns = `id, patient_id, provider, status, vendor_user_id, session_id, connected_at,
	last_sync_at, created_at, updated_at`

func scanWearable(row scanner) (*models.WearableConnection, error) {
	c := &models.WearableConnection{}
	var vendorUser, session sql.NullString
	var connectedAt, lastSync sql.NullTime
	err := row.Scan(&c.ID, &c.PatientID, &c.Provider, &c.Status, &vendorUser, &session,
		&connectedAt, &lastSync, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.VendorUserID = vendorUser.String
	c.SessionID = session.String
	c.ConnectedAt = timeFromNull(connectedAt)
	c.LastSyncAt = timeFromNull(lastSync)
	return c, nil
}

func (r *sqliteWearableRepo) UpsertPending(ctx context.Context, patientID string, provider models.Provider, sessionID string) error {
	now := utc(time.Now())
	query := `
		INSERT INTO wearable_connections (id, patient_id, provider, status, session_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id, provider) DO UPDATE SET
			status = excluded.status,
			session_id = excluded.session_id,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(), patientID, provider, models.WearablePending, nullString(sessionID), now, now)
	if err != nil {
		return fmt.Errorf("upsert pending connection: %w", err)
	}
	return nil
}

func (r *sqliteWearableRepo) MarkConnected(ctx context.Context, patientID string, provider models.Provider, vendorUserID string, at time.Time) error {
	at = utc(at)
	query := `
		INSERT INTO wearable_connections (id, patient_id, provider, status, vendor_user_id,
			connected_at, last_sync_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id, provider) DO UPDATE SET
			status = excluded.status,
			vendor_user_id = COALESCE(excluded.vendor_user_id, wearable_connections.vendor_user_id),
			connected_at = excluded.connected_at,
			last_sync_at = excluded.last_sync_at,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		uuid.New().String(), patientID, provider, models.WearableConnected, nullString(vendorUserID),
		at, at, at, at)
	if err != nil {
		return fmt.Errorf("mark connection connected: %w", err)
	}
	return nil
}

func (r *sqliteWearableRepo) MarkDisconnected(ctx context.Context, patientID string, provider models.Provider) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE wearable_connections SET status = ?, updated_at = ? WHERE patient_id = ? AND provider = ?`,
		models.WearableDisconnected, utc(time.Now()), patientID, provider)
	if err != nil {
		return fmt.Errorf("mark connection disconnected: %w", err)
	}
	return nil
}

func (r *sqliteWearableRepo) TouchSync(ctx context.Context, patientID string, provider models.Provider, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE wearable_connections SET last_sync_at = ?, updated_at = ? WHERE patient_id = ? AND provider = ?`,
		utc(at), utc(time.Now()), patientID, provider)
	if err != nil {
		return fmt.Errorf("touch connection sync: %w", err)
	}
	return nil
}

func (r *sqliteWearableRepo) Get(ctx context.Context, patientID string, provider models.Provider) (*models.WearableConnection, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+wearableColumns+` FROM wearable_connections WHERE patient_id = ? AND provider = ?`,
		patientID, provider)
	c, err := scanWearable(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wearable connection: %w", err)
	}
	return c, nil
}

func (r *sqliteWearableRepo) ListByPatient(ctx context.Context, patientID string) ([]*models.WearableConnection, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+wearableColumns+` FROM wearable_connections WHERE patient_id = ? ORDER BY provider`, patientID)
	if err != nil {
		return nil, fmt.Errorf("list wearable connections: %w", err)
	}
	defer rows.Close()

	var out []*models.WearableConnection
	for rows.Next() {
		c, err := scanWearable(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wearable connection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *sqliteWearableRepo) Delete(ctx context.Context, patientID string, provider models.Provider) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM wearable_connections WHERE patient_id = ? AND provider = ?", patientID, provider)
	if err != nil {
		return fmt.Errorf("delete wearable connection: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("delete wearable connection %s: %w", provider, ErrNotFound)
	}
	return nil
}
