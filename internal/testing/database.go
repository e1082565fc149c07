package testing

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teranos/mlproject/db"
)

// CreateTestDB creates an in-memory SQLite test database.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	// Each pooled connection to :memory: is a separate database
	testDB.SetMaxOpenConns(1)

	if _, err := testDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// CreateMigratedTestDB creates an in-memory database with all migrations applied.
func CreateMigratedTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB := CreateTestDB(t)
	if err := db.Migrate(testDB, nil); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return testDB
}
