package repository

import (
	"path/filepath"
	"testing"

	"familysafe/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// seedChildMember creates a child profile and its member row, returning the
// member id.
func seedChildMember(t *testing.T, db *database.DB, userID, name string) int64 {
	t.Helper()
	if _, err := db.Exec(
		"INSERT INTO profiles (id, email, name, role) VALUES (?, ?, ?, 'child')",
		userID, userID+"@example.com", name,
	); err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}
	memberID, err := db.ExecReturningID(
		"INSERT INTO members (user_id, name) VALUES (?, ?)",
		userID, name,
	)
	if err != nil {
		t.Fatalf("Failed to seed member: %v", err)
	}
	return memberID
}
