package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResetToken holds the hashed form of a single-use password-reset token.
// The plaintext token is handed to the mailer once at creation time and is
// never persisted.
type ResetToken struct {
	ID        int64      `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	TokenHash string     `db:"token_hash" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UsedAt    *time.Time `db:"used_at" json:"used_at,omitempty"`
}

func (t *ResetToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *ResetToken) IsUsed() bool {
	return t.UsedAt != nil
}

// IsValid reports whether the token can still be consumed: never used and
// not yet expired.
func (t *ResetToken) IsValid(now time.Time) bool {
	return !t.IsUsed() && !t.IsExpired(now)
}

// ResetTokenStats partitions all retained tokens. Every row falls in exactly
// one bucket: used wins over expired, expired wins over active.
type ResetTokenStats struct {
	Active  int64 `db:"active" json:"active"`
	Used    int64 `db:"used" json:"used"`
	Expired int64 `db:"expired" json:"expired"`
}
