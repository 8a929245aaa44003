package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashResetToken generates a SHA256 hash of a password reset token.
// Only the hash is stored; the raw token travels by email.
func HashResetToken(token string) string {
	hasher := sha256.New()
	hasher.Write([]byte(token))
	return hex.EncodeToString(hasher.Sum(nil))
}
