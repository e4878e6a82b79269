package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const (
	// ResetTokenBytes is the entropy of a reset token (256 bits).
	ResetTokenBytes = 32
	// DefaultResetTokenTTL is how long a reset link can be redeemed.
	DefaultResetTokenTTL = 15 * time.Minute
)

// NewResetToken returns a hex-encoded random token of ResetTokenBytes bytes.
func NewResetToken() (string, error) {
	b := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
