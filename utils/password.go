package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashAccessSecret hashes a private benefit's access secret for storage.
func HashAccessSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAccessSecret compares a supplied secret against the stored hash.
// bcrypt's comparison is constant-structure, so a mismatch does not leak
// meaningful timing.
func VerifyAccessSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
