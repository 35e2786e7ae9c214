package cryptox

import (
	"strings"
	"testing"
)

func TestHashAndCheckPassword_Match(t *testing.T) {
	hash, err := HashPassword("longpass1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if hash == "longpass1" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected bcrypt hash, got %q", hash)
	}
	if !CheckPassword(hash, "longpass1") {
		t.Fatalf("expected password to verify against its own hash")
	}
}

func TestCheckPassword_Mismatch(t *testing.T) {
	hash, err := HashPassword("longpass1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if CheckPassword(hash, "wrongpass") {
		t.Fatalf("wrong password must not verify")
	}
}

func TestCheckPassword_GarbageHash(t *testing.T) {
	if CheckPassword("not-a-hash", "whatever") {
		t.Fatalf("garbage hash must not verify")
	}
}

func TestHashPassword_DistinctSalts(t *testing.T) {
	h1, err := HashPassword("longpass1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	h2, err := HashPassword("longpass1")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ (random salt)")
	}
}
