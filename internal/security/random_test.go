package security

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestNewRandomStringLengthAndUniqueness(t *testing.T) {
	a, err := NewRandomString(32)
	if err != nil {
		t.Fatalf("random: %v", err)
	}
	b, _ := NewRandomString(32)
	if len(a) != 64 || len(b) != 64 {
		t.Fatalf("expected 64 hex chars, got %d and %d", len(a), len(b))
	}
	if a == b {
		t.Fatal("two random strings must differ")
	}
}

func TestHashTokenMatchesSHA256Hex(t *testing.T) {
	raw := "abc"
	sum := sha256.Sum256([]byte(raw))
	if got, want := HashToken(raw), hex.EncodeToString(sum[:]); got != want {
		t.Fatalf("hash mismatch: got %s want %s", got, want)
	}
	if HashToken("abc") == HashToken("abd") {
		t.Fatal("distinct inputs must hash differently")
	}
}
