package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NewResetToken returns a random password reset token and the hash to store for it.
func NewResetToken() (token, hash string, err error) {
	token, err = randomHex(32)
	if err != nil {
		return "", "", fmt.Errorf("generating reset token: %w", err)
	}
	return token, HashResetToken(token), nil
}

// HashResetToken returns the stored form of a reset token.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
