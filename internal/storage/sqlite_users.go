package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cenk2025/hardpath/internal/models"
)

type sqliteUserRepo struct {
	db *sql.DB
}

const userColumns = `id, email, full_name, password_hash, role, language, onboarding_completed, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var onboarded int
	err := row.Scan(
		&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &user.Role,
		&user.Language, &onboarded, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.OnboardingCompleted = onboarded != 0
	return user, nil
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.FullName, user.PasswordHash, user.Role,
		user.Language, boolToInt(user.OnboardingCompleted), utc(user.CreatedAt), utc(user.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *sqliteUserRepo) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	return user, err
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := r.getOne(ctx, "id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := r.getOne(ctx, "email = ? COLLATE NOCASE", email)
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *sqliteUserRepo) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET email = ?, full_name = ?, password_hash = ?, role = ?, language = ?,
			onboarding_completed = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email, user.FullName, user.PasswordHash, user.Role, user.Language,
		boolToInt(user.OnboardingCompleted), utc(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("update user %s: %w", user.ID, ErrNotFound)
	}
	return nil
}

func (r *sqliteUserRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("delete user %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *sqliteUserRepo) list(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *sqliteUserRepo) List(ctx context.Context) ([]*models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY full_name, email`)
}

func (r *sqliteUserRepo) ListByRole(ctx context.Context, role models.Role) ([]*models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY full_name, email`, role)
}

func (r *sqliteUserRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

type sqliteConsentRepo struct {
	db *sql.DB
}

func (r *sqliteConsentRepo) Upsert(ctx context.Context, c *models.Consent) error {
	query := `
		INSERT INTO consents (patient_id, heart_rate, activity, sleep, ecg, sharing, accepted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(patient_id) DO UPDATE SET
			heart_rate = excluded.heart_rate,
			activity = excluded.activity,
			sleep = excluded.sleep,
			ecg = excluded.ecg,
			sharing = excluded.sharing,
			accepted_at = excluded.accepted_at
	`
	_, err := r.db.ExecContext(ctx, query,
		c.PatientID, boolToInt(c.HeartRate), boolToInt(c.Activity), boolToInt(c.Sleep),
		boolToInt(c.ECG), boolToInt(c.Sharing), utc(c.AcceptedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert consent: %w", err)
	}
	return nil
}

func (r *sqliteConsentRepo) Get(ctx context.Context, patientID string) (*models.Consent, error) {
	query := `
		SELECT patient_id, heart_rate, activity, sleep, ecg, sharing, accepted_at
		FROM consents WHERE patient_id = ?
	`
	c := &models.Consent{}
	var hr, act, sleep, ecg, sharing int
	err := r.db.QueryRowContext(ctx, query, patientID).Scan(
		&c.PatientID, &hr, &act, &sleep, &ecg, &sharing, &c.AcceptedAt,
	)
	if err == sql.ErrNoRows {
		//nolint:nilnil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get consent: %w", err)
	}
	c.HeartRate, c.Activity, c.Sleep, c.ECG, c.Sharing = hr != 0, act != 0, sleep != 0, ecg != 0, sharing != 0
	return c, nil
}
