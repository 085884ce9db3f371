package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherHashAndCompare(t *testing.T) {
	h, err := NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	hash, err := h.Hash("Abcd123!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "Abcd123!" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := h.Compare(hash, "Abcd123!"); err != nil {
		t.Fatalf("expected password verification success, got %v", err)
	}
	if err := h.Compare(hash, "wrong-pass"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestPasswordHasherRejectsMalformedHash(t *testing.T) {
	h, _ := NewPasswordHasher(bcrypt.MinCost)
	err := h.Compare("not-a-bcrypt-hash", "x")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected malformed hash error, got %v", err)
	}
}

func TestNewPasswordHasherCostBounds(t *testing.T) {
	if _, err := NewPasswordHasher(bcrypt.MinCost - 1); err == nil {
		t.Fatal("expected error below min cost")
	}
	if _, err := NewPasswordHasher(bcrypt.MaxCost + 1); err == nil {
		t.Fatal("expected error above max cost")
	}
	h, err := NewPasswordHasher(DefaultBcryptCost)
	if err != nil || h.Cost() != 12 {
		t.Fatalf("default cost mismatch: %v %v", h, err)
	}
}
