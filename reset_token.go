package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goliatone/go-errors"
)

// ResetTokenTTL is the validity window of a password reset token.
const ResetTokenTTL = 10 * time.Minute

const resetTokenBytes = 32

// ResetToken pairs the opaque value handed to the user with the fingerprint
// that gets persisted. Plain is shown exactly once and never stored.
type ResetToken struct {
	Plain     string
	Digest    string
	ExpiresAt time.Time
}

// NewResetToken generates a high-entropy opaque token and its stored
// fingerprint, expiring ResetTokenTTL from now.
func NewResetToken() (*ResetToken, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate reset token")
	}

	plain := hex.EncodeToString(buf)

	return &ResetToken{
		Plain:     plain,
		Digest:    DigestResetToken(plain),
		ExpiresAt: time.Now().Add(ResetTokenTTL),
	}, nil
}

// DigestResetToken derives the deterministic fingerprint stored in place of
// the opaque token. SHA-256 is deliberate: the input already carries 256
// bits of entropy, so a fast hash is safe and lookups stay cheap.
func DigestResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
