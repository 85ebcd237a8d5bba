package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

// newTestService creates a Service backed by an in-memory database.
func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := NewAccountRepository(setupTestDB(t))
	return NewService(repo, testSigningSecret, time.Hour)
}

// TestServiceRegister verifies account registration.
func TestServiceRegister(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "alice", "password")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if id == 0 {
		t.Error("Register() returned id 0")
	}

	// The stored hash must verify against the plaintext.
	account, err := svc.accounts.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}
	ok, err := VerifyPassword("password", account.PasswordHash)
	if err != nil {
		t.Fatalf("VerifyPassword() error = %v", err)
	}
	if !ok {
		t.Error("stored hash does not match the registered password")
	}

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice", "other")
		if !errors.Is(err, ErrUsernameExists) {
			t.Errorf("Register() error = %v, want ErrUsernameExists", err)
		}
	})
}

// TestServiceAccount verifies account resolution from a session's id.
func TestServiceAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "carol", "password")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	account, err := svc.Account(ctx, id)
	if err != nil {
		t.Fatalf("Account() error = %v", err)
	}
	if account.Username != "carol" {
		t.Errorf("Account() username = %q, want carol", account.Username)
	}

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Account(ctx, 9999)
		if !errors.Is(err, ErrAccountNotFound) {
			t.Errorf("Account() error = %v, want ErrAccountNotFound", err)
		}
	})
}

// TestServiceLogin verifies credential checking and token issuance.
func TestServiceLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.Register(ctx, "bob", "hunter2")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	t.Run("valid credentials", func(t *testing.T) {
		token, err := svc.Login(ctx, "bob", "hunter2")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}

		accountID, err := svc.Verify(token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if accountID != id {
			t.Errorf("Verify() accountID = %d, want %d", accountID, id)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "bob", "hunter3")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown username", func(t *testing.T) {
		// Unknown usernames produce the same error as wrong passwords so
		// login responses cannot be used to enumerate accounts.
		_, err := svc.Login(ctx, "mallory", "hunter2")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
		}
	})
}
