package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/authcore/internal/domain"
)

type ResetTokenRepository interface {
	Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.ResetToken, error)

	// LatestByUser returns the most recently created token for the user
	// regardless of validity, for the rate-limit window check.
	LatestByUser(ctx context.Context, userID uuid.UUID) (*domain.ResetToken, error)

	// ListActive returns unused, unexpired tokens newest first, bounded by
	// limit. The verification scan runs over this set.
	ListActive(ctx context.Context, now time.Time, limit int) ([]domain.ResetToken, error)

	// ListRecentInactive returns tokens that are used or expired, newest
	// first, bounded by limit. Only consulted to classify a failed
	// verification for UI copy.
	ListRecentInactive(ctx context.Context, now time.Time, limit int) ([]domain.ResetToken, error)

	// MarkUsed conditionally consumes a token. It reports false when the
	// token was already consumed by a concurrent attempt.
	MarkUsed(ctx context.Context, id int64, now time.Time) (bool, error)

	// ExpireActiveByUser soft-expires every currently valid token owned by
	// the user by setting expires_at to now. Records are kept for audit.
	ExpireActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) error

	// DeleteExpiredBefore removes tokens whose expiry passed before cutoff
	// and reports how many rows were deleted.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)

	Stats(ctx context.Context, now time.Time) (*domain.ResetTokenStats, error)
}
