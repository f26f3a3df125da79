package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const hashIterations = 100_000

// GenerateSaltHex returns n random bytes hex-encoded.
func GenerateSaltHex(n int) (string, error) {
	if n <= 0 {
		n = 16
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword derives an iterated SHA-256 digest of password and salt.
func HashPassword(password, saltHex string) string {
	sum := sha256.Sum256([]byte(saltHex + password))
	for i := 1; i < hashIterations; i++ {
		sum = sha256.Sum256(sum[:])
	}
	return hex.EncodeToString(sum[:])
}

// VerifyPassword compares password against the stored hash in constant time.
func VerifyPassword(password, saltHex, wantHashHex string) bool {
	got := HashPassword(password, saltHex)
	return subtle.ConstantTimeCompare([]byte(got), []byte(wantHashHex)) == 1
}
