package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/cenk2025/hardpath/internal/models"
	"github.com/cenk2025/hardpath/internal/security"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	path      string
	masterKey []byte
	db        *sql.DB
	cipher    *security.FieldCipher

	users         *sqliteUserRepo
	tokens        *sqliteTokenRepo
	consents      *sqliteConsentRepo
	metrics       *sqliteMetricRepo
	symptoms      *sqliteSymptomRepo
	bloodPressure *sqliteBloodPressureRepo
	wearables     *sqliteWearableRepo
	resolutions   *sqliteResolutionRepo
	messages      *sqliteMessageRepo
	medications   *sqliteMedicationRepo
	programs      *sqliteProgramRepo
}

// NewSQLiteStorage creates a new SQLite storage. masterKey encrypts free-text
// columns (symptom notes, message bodies).
func NewSQLiteStorage(path string, masterKey []byte) *SQLiteStorage {
	return &SQLiteStorage{
		path:      path,
		masterKey: masterKey,
	}
}

// Open initializes the database connection.
func (s *SQLiteStorage) Open() error {
	ctx := context.Background()

	cipher, err := security.NewFieldCipher(s.masterKey)
	if err != nil {
		return fmt.Errorf("init field cipher: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite", s.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	s.db = db
	s.cipher = cipher

	s.users = &sqliteUserRepo{db: db}
	s.tokens = &sqliteTokenRepo{db: db}
	s.consents = &sqliteConsentRepo{db: db}
	s.metrics = &sqliteMetricRepo{db: db}
	s.symptoms = &sqliteSymptomRepo{db: db, cipher: cipher}
	s.bloodPressure = &sqliteBloodPressureRepo{db: db}
	s.wearables = &sqliteWearableRepo{db: db}
	s.resolutions = &sqliteResolutionRepo{db: db}
	s.messages = &sqliteMessageRepo{db: db, cipher: cipher}
	s.medications = &sqliteMedicationRepo{db: db}
	s.programs = &sqliteProgramRepo{db: db}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate() error {
	return runMigrations(s.db)
}

// EnsureAdminUser creates a default admin if no users exist.
func (s *SQLiteStorage) EnsureAdminUser() error {
	ctx := context.Background()
	count, err := s.Users().Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	password := generateRandomPassword(16)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := models.NewUser("admin@localhost", "Administrator", models.RoleAdmin)
	admin.ID = uuid.New().String()
	admin.PasswordHash = string(hash)
	admin.OnboardingCompleted = true

	if err := s.Users().Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	fmt.Printf("\n")
	fmt.Printf("===========================================\n")
	fmt.Printf("  DEFAULT ADMIN USER CREATED\n")
	fmt.Printf("  Email:    %s\n", admin.Email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Printf("  CHANGE THIS PASSWORD IMMEDIATELY!\n")
	fmt.Printf("===========================================\n")
	fmt.Printf("\n")

	return nil
}

// Users returns the user repository.
func (s *SQLiteStorage) Users() UserRepository { return s.users }

// Tokens returns the refresh token repository.
func (s *SQLiteStorage) Tokens() TokenRepository { return s.tokens }

// Consents returns the consent repository.
func (s *SQLiteStorage) Consents() ConsentRepository { return s.consents }

// Metrics returns the daily metric repository.
func (s *SQLiteStorage) Metrics() MetricRepository { return s.metrics }

// Symptoms returns the symptom report repository.
func (s *SQLiteStorage) Symptoms() SymptomRepository { return s.symptoms }

// BloodPressure returns the blood-pressure repository.
func (s *SQLiteStorage) BloodPressure() BloodPressureRepository { return s.bloodPressure }

// Wearables returns the wearable connection repository.
func (s *SQLiteStorage) Wearables() WearableRepository { return s.wearables }

// Resolutions returns the alert resolution repository.
func (s *SQLiteStorage) Resolutions() ResolutionRepository { return s.resolutions }

// Messages returns the message repository.
func (s *SQLiteStorage) Messages() MessageRepository { return s.messages }

// Medications returns the medication repository.
func (s *SQLiteStorage) Medications() MedicationRepository { return s.medications }

// Programs returns the rehab program repository.
func (s *SQLiteStorage) Programs() ProgramRepository { return s.programs }

func generateRandomPassword(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)[:length]
}

// Helper functions

// utc normalizes timestamps so stored text sorts chronologically.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func intFromNull(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatFromNull(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func timeFromNull(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time
	return &t
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// patientNameExpr selects a display name for the joined users row u.
const patientNameExpr = `CASE WHEN u.full_name != '' THEN u.full_name ELSE u.email END`
