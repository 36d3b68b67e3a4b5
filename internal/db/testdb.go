package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB returns an in-memory database with the schema applied. It is
// closed when the test ends.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return mustReady(t, ":memory:")
}

// NewTestDBFile is NewTestDB backed by a file in t.TempDir, for tests that
// reopen the database to check durability.
func NewTestDBFile(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "nexus.sqlite3")
	return mustReady(t, path), path
}

func mustReady(t *testing.T, path string) *sql.DB {
	t.Helper()
	db, err := Ready(path)
	if err != nil {
		t.Fatalf("preparing test database %s: %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
