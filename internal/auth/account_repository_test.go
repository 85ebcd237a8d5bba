package auth

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory database with the usuarios table.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	schema := `
		CREATE TABLE usuarios (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

// TestAccountRepositoryCreate verifies account insertion.
func TestAccountRepositoryCreate(t *testing.T) {
	repo := NewAccountRepository(setupTestDB(t))
	ctx := context.Background()

	t.Run("assigns generated id", func(t *testing.T) {
		account := &Account{Username: "alice", PasswordHash: "hash-a"}
		if err := repo.Create(ctx, account); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if account.ID == 0 {
			t.Error("Create() did not assign an id")
		}
	})

	t.Run("duplicate username", func(t *testing.T) {
		account := &Account{Username: "alice", PasswordHash: "hash-b"}
		err := repo.Create(ctx, account)
		if !errors.Is(err, ErrUsernameExists) {
			t.Errorf("Create() error = %v, want ErrUsernameExists", err)
		}

		// The original account must be untouched.
		stored, err := repo.GetByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("GetByUsername() error = %v", err)
		}
		if stored.PasswordHash != "hash-a" {
			t.Errorf("stored hash = %q, want the original hash-a", stored.PasswordHash)
		}
	})
}

// TestAccountRepositoryGet verifies account lookups.
func TestAccountRepositoryGet(t *testing.T) {
	repo := NewAccountRepository(setupTestDB(t))
	ctx := context.Background()

	account := &Account{Username: "bob", PasswordHash: "hash"}
	if err := repo.Create(ctx, account); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("by username", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "bob")
		if err != nil {
			t.Fatalf("GetByUsername() error = %v", err)
		}
		if got.ID != account.ID {
			t.Errorf("GetByUsername() id = %d, want %d", got.ID, account.ID)
		}
	})

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, account.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if got.Username != "bob" {
			t.Errorf("GetByID() username = %q, want bob", got.Username)
		}
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByUsername(ctx, "nobody")
		if !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("GetByUsername() error = %v, want ErrAccountNotFound", err)
		}
	})
}

// TestAccountRepositoryCount verifies account counting.
func TestAccountRepositoryCount(t *testing.T) {
	repo := NewAccountRepository(setupTestDB(t))
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Count() = %d, want 0", count)
	}

	for _, name := range []string{"a", "b", "c"} {
		if err := repo.Create(ctx, &Account{Username: name, PasswordHash: "h"}); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}
