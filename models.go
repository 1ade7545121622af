package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the user model. PasswordHash and the reset-token fields never
// serialize outward; Active is the soft-delete marker and every default
// lookup filters on it.
type User struct {
	bun.BaseModel       `bun:"table:users,alias:usr"`
	ID                  uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name                string     `bun:"name,notnull" json:"name,omitempty"`
	Email               string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Photo               string     `bun:"photo" json:"photo,omitempty"`
	Role                UserRole   `bun:"user_role,notnull" json:"role,omitempty"`
	PasswordHash        string     `bun:"password_hash" json:"-"`
	PasswordChangedAt   *time.Time `bun:"password_changed_at,nullzero" json:"-"`
	ResetTokenDigest    *string    `bun:"reset_token_digest,nullzero" json:"-"`
	ResetTokenExpiresAt *time.Time `bun:"reset_token_expires_at,nullzero" json:"-"`
	Active              bool       `bun:"active,notnull,default:true" json:"-"`
	CreatedAt           *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt           *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail lower-cases and trims an email for the unique index.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PasswordChangedAfter reports whether the password changed after the given
// token issue time. JWT issued-at carries second precision, so both sides
// are truncated before comparing.
func (u *User) PasswordChangedAfter(issuedAt time.Time) bool {
	if u == nil || u.PasswordChangedAt == nil {
		return false
	}
	return u.PasswordChangedAt.Truncate(time.Second).After(issuedAt.Truncate(time.Second))
}

// HasPendingReset reports whether an unexpired reset token is on record.
// The digest and expiry are set and cleared together.
func (u *User) HasPendingReset(now time.Time) bool {
	if u == nil || u.ResetTokenDigest == nil || u.ResetTokenExpiresAt == nil {
		return false
	}
	return u.ResetTokenExpiresAt.After(now)
}

// SetResetToken stamps the stored fingerprint and expiry, replacing any
// prior pending reset.
func (u *User) SetResetToken(digest string, expiresAt time.Time) *User {
	u.ResetTokenDigest = &digest
	u.ResetTokenExpiresAt = &expiresAt
	return u
}

// ClearResetToken removes the fingerprint and expiry as a pair.
func (u *User) ClearResetToken() *User {
	u.ResetTokenDigest = nil
	u.ResetTokenExpiresAt = nil
	return u
}

// MarkPasswordChanged stamps PasswordChangedAt slightly in the past so a
// token issued in the same second as the change still verifies.
func (u *User) MarkPasswordChanged() *User {
	changedAt := time.Now().Add(-time.Second)
	u.PasswordChangedAt = &changedAt
	return u
}
