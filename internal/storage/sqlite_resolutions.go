package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenk2025/hardpath/internal/models"
)

type sqliteResolutionRepo struct {
	db *sql.DB
}

func (r *sqliteResolutionRepo) Resolve(ctx context.Context, res *models.AlertResolution) error {
	if res.ResolvedAt.IsZero() {
		res.ResolvedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO alert_resolutions (alert_key, resolved_by, resolved_at, note)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(alert_key) DO UPDATE SET
			resolved_by = excluded.resolved_by,
			resolved_at = excluded.resolved_at,
			note = excluded.note
	`
	_, err := r.db.ExecContext(ctx, query, res.AlertKey, res.ResolvedBy, utc(res.ResolvedAt), nullString(res.Note))
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	return nil
}

func (r *sqliteResolutionRepo) Reopen(ctx context.Context, alertKey string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM alert_resolutions WHERE alert_key = ?", alertKey)
	if err != nil {
		return fmt.Errorf("reopen alert: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("reopen alert %s: %w", alertKey, ErrNotFound)
	}
	return nil
}

func (r *sqliteResolutionRepo) List(ctx context.Context) ([]*models.AlertResolution, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT alert_key, resolved_by, resolved_at, note FROM alert_resolutions ORDER BY resolved_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list alert resolutions: %w", err)
	}
	defer rows.Close()

	var out []*models.AlertResolution
	for rows.Next() {
		res := &models.AlertResolution{}
		var note sql.NullString
		if err := rows.Scan(&res.AlertKey, &res.ResolvedBy, &res.ResolvedAt, &note); err != nil {
			return nil, fmt.Errorf("scan alert resolution: %w", err)
		}
		res.Note = note.String
		out = append(out, res)
	}
	return out, rows.Err()
}

func (r *sqliteResolutionRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM alert_resolutions WHERE resolved_at < ?", utc(before))
	if err != nil {
		return 0, fmt.Errorf("prune alert resolutions: %w", err)
	}
	return result.RowsAffected()
}
