package auth

import "testing"

// TestHashPassword verifies password hashing behaviour.
func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword() returned an empty hash")
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	// Hashing the same password twice must produce different hashes
	// because each carries its own random salt.
	other, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() second call error = %v", err)
	}
	if hash == other {
		t.Error("two hashes of the same password should differ (random salt)")
	}
}

// TestVerifyPassword verifies password comparison against stored hashes.
func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	t.Run("correct password", func(t *testing.T) {
		ok, err := VerifyPassword("s3cret", hash)
		if err != nil {
			t.Fatalf("VerifyPassword() error = %v", err)
		}
		if !ok {
			t.Error("VerifyPassword() = false, want true")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		ok, err := VerifyPassword("s3cret!", hash)
		if err != nil {
			t.Fatalf("VerifyPassword() error = %v", err)
		}
		if ok {
			t.Error("VerifyPassword() = true for wrong password")
		}
	})

	t.Run("malformed hash", func(t *testing.T) {
		_, err := VerifyPassword("s3cret", "not-a-bcrypt-hash")
		if err == nil {
			t.Error("VerifyPassword() should error on a malformed hash")
		}
	})
}
