package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewRandomString returns n random bytes, hex encoded.
func NewRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
