package health

import (
	"context"
	"database/sql"
	"errors"
)

// SQLiteChecker pings the application database.
type SQLiteChecker struct {
	db *sql.DB
}

// NewSQLiteChecker creates a new SQLite health checker.
func NewSQLiteChecker(db *sql.DB) *SQLiteChecker {
	return &SQLiteChecker{db: db}
}

// Name returns the checker name.
func (c *SQLiteChecker) Name() string {
	return "sqlite"
}

// Check runs a trivial query, which also catches a locked or corrupt file
// that a bare ping would miss.
func (c *SQLiteChecker) Check(ctx context.Context) error {
	if c.db == nil {
		return errors.New("database not initialized")
	}
	var one int
	return c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one)
}

// FuncChecker adapts a function to Checker.
type FuncChecker struct {
	name  string
	check func(ctx context.Context) error
}

// NewFuncChecker creates a named checker backed by fn.
func NewFuncChecker(name string, fn func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, check: fn}
}

// Name returns the checker name.
func (c *FuncChecker) Name() string { return c.name }

// Check calls the wrapped function.
func (c *FuncChecker) Check(ctx context.Context) error { return c.check(ctx) }
