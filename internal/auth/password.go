package auth

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor. Bounded CPU cost per call; raising it
// requires re-hashing on next successful login, which this service does not do.
const bcryptCost = 12

// HashPassword produces a salted one-way digest. The salt is embedded, so the
// same plaintext yields a different digest on every call.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword compares plaintext against a stored digest. A malformed
// digest is reported as a mismatch, never as an error.
func VerifyPassword(digest, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// RandomPasswordDigest returns a digest of random material for accounts that
// must never authenticate via password (SSO-provisioned users).
func RandomPasswordDigest() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return HashPassword(hex.EncodeToString(buf))
}
