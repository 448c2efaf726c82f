package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT UNIQUE NOT NULL,
				full_name TEXT NOT NULL DEFAULT '',
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'patient',
				language TEXT NOT NULL DEFAULT 'en',
				onboarding_completed INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			CREATE TABLE IF NOT EXISTS refresh_tokens (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				token_hash TEXT UNIQUE NOT NULL,
				expires_at DATETIME NOT NULL,
				created_at DATETIME NOT NULL,
				revoked INTEGER NOT NULL DEFAULT 0,
				revoked_at DATETIME,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS consents (
				patient_id TEXT PRIMARY KEY,
				heart_rate INTEGER NOT NULL DEFAULT 0,
				activity INTEGER NOT NULL DEFAULT 0,
				sleep INTEGER NOT NULL DEFAULT 0,
				ecg INTEGER NOT NULL DEFAULT 0,
				sharing INTEGER NOT NULL DEFAULT 0,
				accepted_at DATETIME NOT NULL,
				FOREIGN KEY (patient_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
			CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user ON refresh_tokens(user_id);
		`,
	},
	{
		Version: 2,
		Name:    "clinical_data",
		Up: `
			-- One row per patient per calendar day. Check-ins and wearable
			-- syncs upsert disjoint column sets on (patient_id, day).
			CREATE TABLE IF NOT EXISTS daily_metrics (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL,
				day TEXT NOT NULL,
				recorded_at DATETIME NOT NULL,
				resting_hr INTEGER,
				hrv_ms INTEGER,
				sleep_hours REAL,
				energy_level INTEGER,
				readiness_score INTEGER,
				symptoms TEXT NOT NULL DEFAULT '[]',
				source TEXT NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE (patient_id, day),
				FOREIGN KEY (patient_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS symptom_reports (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL,
				symptoms TEXT NOT NULL,
				severity TEXT NOT NULL,
				notes TEXT,
				reported_at DATETIME NOT NULL,
				FOREIGN KEY (patient_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS blood_pressure_logs (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL,
				systolic INTEGER NOT NULL,
				diastolic INTEGER NOT NULL,
				period TEXT NOT NULL,
				notes TEXT,
				recorded_at DATETIME NOT NULL,
				FOREIGN KEY (patient_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS alert_resolutions (
				alert_key TEXT PRIMARY KEY,
				resolved_by TEXT NOT NULL,
				resolved_at DATETIME NOT NULL,
				note TEXT
			);

			CREATE INDEX IF NOT EXISTS idx_daily_metrics_recorded ON daily_metrics(recorded_at);
			CREATE INDEX IF NOT EXISTS idx_daily_metrics_resting_hr ON daily_metrics(resting_hr);
			CREATE INDEX IF NOT EXISTS idx_daily_metrics_readiness ON daily_metrics(readiness_score);
			CREATE INDEX IF NOT EXISTS idx_symptom_reports_patient ON symptom_reports(patient_id, reported_at);
			CREATE INDEX IF NOT EXISTS idx_symptom_reports_reported ON symptom_reports(reported_at);
			CREATE INDEX IF NOT EXISTS idx_bp_logs_patient ON blood_pressure_logs(patient_id, recorded_at);
			CREATE INDEX IF NOT EXISTS idx_bp_logs_systolic ON blood_pressure_logs(systolic, recorded_at);
		`,
	},
	{
		Version: 3,
		Name:    "wearables",
		Up: `
			CREATE TABLE IF NOT EXISTS wearable_connections (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL,
				provider TEXT NOT NULL,
				status TEXT NOT NULL,
				vendor_user_id TEXT,
				session_id TEXT,
				connected_at DATETIME,
				last_sync_at DATETIME,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				UNIQUE (patient_id, provider),
				FOREIGN KEY (patient_id) REFERENCES users(id) ON DELETE CASCADE
			);
		`,
	},
	{
		Version: 4,
		Name:    "care_plan",
		Up: `
			CREATE TABLE IF NOT EXISTS messages (
				id TEXT PRIMARY KEY,
				sender_id TEXT NOT NULL,
				receiver_id TEXT NOT NULL,
				content TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				read_at DATETIME,
				FOREIGN KEY (sender_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (receiver_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS medications (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL,
				name TEXT NOT NULL,
				dose TEXT NOT NULL DEFAULT '',
				time_of_day TEXT NOT NULL DEFAULT '',
				reminder INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (patient_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS rehab_programs (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT,
				duration_weeks INTEGER NOT NULL,
				intensity TEXT NOT NULL,
				sessions_per_week INTEGER NOT NULL,
				created_by TEXT NOT NULL,
				created_at DATETIME NOT NULL
			);

			CREATE TABLE IF NOT EXISTS program_assignments (
				patient_id TEXT PRIMARY KEY,
				program_id TEXT NOT NULL,
				assigned_at DATETIME NOT NULL,
				FOREIGN KEY (patient_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (program_id) REFERENCES rehab_programs(id) ON DELETE CASCADE
			);

			CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				patient_id TEXT NOT NULL,
				program_id TEXT NOT NULL,
				date TEXT NOT NULL,
				completed INTEGER NOT NULL DEFAULT 0,
				completed_at DATETIME,
				FOREIGN KEY (patient_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (program_id) REFERENCES rehab_programs(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id, created_at);
			CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(receiver_id, read_at);
			CREATE INDEX IF NOT EXISTS idx_medications_patient ON medications(patient_id);
			CREATE INDEX IF NOT EXISTS idx_sessions_patient ON sessions(patient_id, date);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	// Create migrations table if not exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	// Apply pending migrations
	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		// Run migration in transaction
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		_, err = tx.Exec(m.Up)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
