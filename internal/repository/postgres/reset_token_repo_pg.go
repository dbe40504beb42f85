package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/njprem/authcore/internal/domain"
)

type ResetTokenRepository struct {
	db *sqlx.DB
}

func NewResetTokenRepo(db *sqlx.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.ResetToken, error) {
	const query = `
        INSERT INTO password_reset_token (user_id, token_hash, expires_at)
        VALUES ($1, $2, $3)
        RETURNING id, user_id, token_hash, expires_at, created_at, used_at
    `
	row := r.db.QueryRowxContext(ctx, query, userID, tokenHash, expiresAt)
	var token domain.ResetToken
	if err := row.StructScan(&token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *ResetTokenRepository) LatestByUser(ctx context.Context, userID uuid.UUID) (*domain.ResetToken, error) {
	const query = `
        SELECT id, user_id, token_hash, expires_at, created_at, used_at
        FROM password_reset_token
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT 1
    `
	var token domain.ResetToken
	if err := r.db.GetContext(ctx, &token, query, userID); err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *ResetTokenRepository) ListActive(ctx context.Context, now time.Time, limit int) ([]domain.ResetToken, error) {
	const query = `
        SELECT id, user_id, token_hash, expires_at, created_at, used_at
        FROM password_reset_token
        WHERE used_at IS NULL AND expires_at > $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	var tokens []domain.ResetToken
	if err := r.db.SelectContext(ctx, &tokens, query, now, limit); err != nil {
		return nil, err
	}
	return tokens, nil
}

func (r *ResetTokenRepository) ListRecentInactive(ctx context.Context, now time.Time, limit int) ([]domain.ResetToken, error) {
	const query = `
        SELECT id, user_id, token_hash, expires_at, created_at, used_at
        FROM password_reset_token
        WHERE used_at IS NOT NULL OR expires_at <= $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	var tokens []domain.ResetToken
	if err := r.db.SelectContext(ctx, &tokens, query, now, limit); err != nil {
		return nil, err
	}
	return tokens, nil
}

// MarkUsed is the single-consumption gate: the used_at IS NULL guard makes
// the first writer win and every later attempt report false.
func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id int64, now time.Time) (bool, error) {
	const query = `
        UPDATE password_reset_token
        SET used_at = $2
        WHERE id = $1 AND used_at IS NULL
    `
	res, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *ResetTokenRepository) ExpireActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	const query = `
        UPDATE password_reset_token
        SET expires_at = $2
        WHERE user_id = $1 AND used_at IS NULL AND expires_at > $2
    `
	_, err := r.db.ExecContext(ctx, query, userID, now)
	return err
}

func (r *ResetTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `
        DELETE FROM password_reset_token
        WHERE expires_at < $1
    `
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *ResetTokenRepository) Stats(ctx context.Context, now time.Time) (*domain.ResetTokenStats, error) {
	const query = `
        SELECT
            COUNT(*) FILTER (WHERE used_at IS NULL AND expires_at > $1)  AS active,
            COUNT(*) FILTER (WHERE used_at IS NOT NULL)                  AS used,
            COUNT(*) FILTER (WHERE used_at IS NULL AND expires_at <= $1) AS expired
        FROM password_reset_token
    `
	var stats domain.ResetTokenStats
	if err := r.db.GetContext(ctx, &stats, query, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.ResetTokenStats{}, nil
		}
		return nil, err
	}
	return &stats, nil
}
