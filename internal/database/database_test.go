package database

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for i := 0; i < 2; i++ {
		if err := Migrate(db); err != nil {
			t.Fatalf("Migrate() run %d error: %v", i+1, err)
		}
	}

	for _, table := range []string{"users", "messages", "events"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s: %v", table, err)
		}
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	const insert = "INSERT INTO users (phone, password_hash, created_at) VALUES (?, ?, ?)"
	if _, err := db.Exec(insert, "+15550001", "h", 1); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = db.Exec(insert, "+15550001", "h", 2)
	if err == nil {
		t.Fatalf("expected duplicate phone to fail")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(errors.New("UNIQUE constraint failed")) {
		t.Fatalf("plain errors must not be treated as constraint failures")
	}
}

func TestMessageToUserIsNotEnforced(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error: %v", err)
	}

	_, err = db.Exec("INSERT INTO messages (from_user, to_user, anonymous, body, created_at) VALUES (?, ?, ?, ?, ?)", 1, 999, 0, "hello", 1)
	if err != nil {
		t.Fatalf("expected insert to unknown recipient to succeed, got %v", err)
	}
}

func TestNewRequiresPath(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
