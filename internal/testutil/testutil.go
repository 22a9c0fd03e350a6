// Package testutil provides testing utilities for integration tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tvtracker/tvtracker/internal/database"
	"github.com/tvtracker/tvtracker/internal/database/sqlc"
)

// TestDB wraps a migrated test database.
type TestDB struct {
	DB      *database.DB
	Conn    *sql.DB
	Queries *sqlc.Queries
	Path    string
	Logger  zerolog.Logger
}

// NewTestDB creates a new test database in a temp directory and runs migrations.
// The database is closed automatically when the test ends.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	tmpDir := t.TempDir()
	logger := NewTestLogger(t)

	db, err := database.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return &TestDB{
		DB:      db,
		Conn:    db.Conn(),
		Queries: sqlc.New(db.Conn()),
		Path:    tmpDir,
		Logger:  logger,
	}
}

// Close closes the database. Safe to call more than once.
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// NewTestLogger creates a test logger that outputs to t.Log.
func NewTestLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
}
