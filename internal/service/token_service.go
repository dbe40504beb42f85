package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/njprem/authcore/internal/credential"
	"github.com/njprem/authcore/internal/domain"
	"github.com/njprem/authcore/internal/repository/ports"
	"github.com/njprem/authcore/internal/util"
)

var (
	ErrTokenInvalid     = errors.New("reset token invalid")
	ErrTokenExpired     = errors.New("reset token expired")
	ErrTokenAlreadyUsed = errors.New("reset token already used")
)

const (
	// activeScanLimit bounds the verification scan over outstanding tokens.
	activeScanLimit = 100

	// sweepRetention keeps expired tokens around for a day before the
	// cleanup sweep deletes them. Pure housekeeping, no correctness impact.
	sweepRetention = 24 * time.Hour
)

// PasswordResetSender delivers the reset link to the user. Failures are the
// caller's problem to swallow; see RequestReset.
type PasswordResetSender interface {
	SendPasswordReset(ctx context.Context, email, resetURL string) error
}

// TokenService owns the password-reset token lifecycle: issue, verify,
// consume, invalidate, sweep. All durable state lives in the repositories;
// coordination is expressed through conditional updates, not in-process
// locks.
type TokenService struct {
	tokens ports.ResetTokenRepository
	users  ports.UserRepository
	mailer PasswordResetSender

	frontendBaseURL string
	tokenTTL        time.Duration
	rateWindow      time.Duration

	now func() time.Time
}

func NewTokenService(
	tokens ports.ResetTokenRepository,
	users ports.UserRepository,
	mailer PasswordResetSender,
	frontendBaseURL string,
	tokenTTL time.Duration,
	rateWindow time.Duration,
) *TokenService {
	return &TokenService{
		tokens:          tokens,
		users:           users,
		mailer:          mailer,
		frontendBaseURL: frontendBaseURL,
		tokenTTL:        tokenTTL,
		rateWindow:      rateWindow,
		now:             time.Now,
	}
}

// RequestReset issues a reset token for the account behind email and mails
// the plaintext to the user. Every outcome an attacker could probe for —
// unknown address, rate-limited account, mailer failure — is indistinguishable
// from success; the HTTP layer always answers with the same opaque body.
func (s *TokenService) RequestReset(ctx context.Context, email string) error {
	now := s.now()

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("find user by email: %w", err)
	}

	latest, err := s.tokens.LatestByUser(ctx, user.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("load latest reset token: %w", err)
	}
	if latest != nil && now.Sub(latest.CreatedAt) < s.rateWindow {
		// Silent no-op inside the rate window: no second email, no
		// distinct status. Returning an error here would let callers
		// probe which addresses exist.
		log.Printf("password reset rate-limited for user %s", user.ID)
		return nil
	}

	// Only one token per user is usable at a time: soft-expire the
	// survivors before minting the replacement.
	if err := s.tokens.ExpireActiveByUser(ctx, user.ID, now); err != nil {
		return fmt.Errorf("expire outstanding tokens: %w", err)
	}

	plaintext, err := credential.NewResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	tokenHash, err := credential.HashResetToken(plaintext)
	if err != nil {
		return fmt.Errorf("hash reset token: %w", err)
	}

	if _, err := s.tokens.Create(ctx, user.ID, tokenHash, now.Add(s.tokenTTL)); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/auth/reset-password?token=%s", s.frontendBaseURL, plaintext)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, resetURL); err != nil {
		// Logged only: surfacing a mail failure would leak that the
		// address exists. The unsent token is retired immediately so it
		// cannot linger usable.
		log.Printf("password reset mail failed for user %s: %v", user.ID, err)
		if expireErr := s.tokens.ExpireActiveByUser(ctx, user.ID, s.now()); expireErr != nil {
			log.Printf("expire unsent reset token for user %s: %v", user.ID, expireErr)
		}
	}

	return nil
}

// VerifyToken resolves a plaintext token to its stored record. It recomputes
// the salted hash against every unexpired, unused record and keeps scanning
// after a match is found: an early exit would leak "matched at position N"
// through response timing. Do not optimize this loop into a break.
func (s *TokenService) VerifyToken(ctx context.Context, plaintext string) (*domain.ResetToken, error) {
	records, err := s.tokens.ListActive(ctx, s.now(), activeScanLimit)
	if err != nil {
		return nil, fmt.Errorf("list active reset tokens: %w", err)
	}

	var matched *domain.ResetToken
	for i := range records {
		rec := &records[i]
		if credential.Verify(plaintext, rec.TokenHash) && matched == nil {
			// Records arrive newest first; per-record random salts make
			// a second match practically impossible, so first wins.
			matched = rec
		}
	}

	if matched == nil {
		return nil, s.classifyFailure(ctx, plaintext)
	}
	return matched, nil
}

// classifyFailure distinguishes "already used" and "expired" from plain
// invalid after the active scan came up empty. Both reasons are allowed to
// surface distinctly: the caller already held a once-valid link, so neither
// leaks account existence. Everything else collapses into ErrTokenInvalid.
func (s *TokenService) classifyFailure(ctx context.Context, plaintext string) error {
	now := s.now()
	records, err := s.tokens.ListRecentInactive(ctx, now, activeScanLimit)
	if err != nil {
		log.Printf("classify reset token failure: %v", err)
		return ErrTokenInvalid
	}

	var matched *domain.ResetToken
	for i := range records {
		rec := &records[i]
		if credential.Verify(plaintext, rec.TokenHash) && matched == nil {
			matched = rec
		}
	}

	switch {
	case matched == nil:
		return ErrTokenInvalid
	case matched.IsUsed():
		return ErrTokenAlreadyUsed
	case matched.IsExpired(now):
		return ErrTokenExpired
	default:
		return ErrTokenInvalid
	}
}

// ConsumeToken burns a verified token and installs the new password. The
// ordering is fixed: mark used, then update the password, then soft-expire
// sibling tokens. A failure after the mark leaves the token burned — the
// design fails closed rather than risking reuse.
func (s *TokenService) ConsumeToken(ctx context.Context, plaintext, newPassword string) error {
	if err := util.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}

	matched, err := s.VerifyToken(ctx, plaintext)
	if err != nil {
		return err
	}

	now := s.now()
	ok, err := s.tokens.MarkUsed(ctx, matched.ID, now)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	if !ok {
		return ErrTokenAlreadyUsed
	}

	newHash, err := credential.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, matched.UserID, newHash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}

	if err := s.tokens.ExpireActiveByUser(ctx, matched.UserID, now); err != nil {
		return fmt.Errorf("expire sibling tokens: %w", err)
	}

	return nil
}

// DeleteExpired removes tokens that expired more than 24 hours ago and
// reports how many were dropped.
func (s *TokenService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpiredBefore(ctx, s.now().Add(-sweepRetention))
}

func (s *TokenService) Stats(ctx context.Context) (*domain.ResetTokenStats, error) {
	return s.tokens.Stats(ctx, s.now())
}

// StartSweeper runs DeleteExpired on the given interval until ctx is
// cancelled. Skipping the sweep only affects storage growth, never
// correctness, so failures are logged and the loop keeps going.
func (s *TokenService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.DeleteExpired(ctx)
				if err != nil {
					log.Printf("reset token sweep failed: %v", err)
					continue
				}
				if deleted > 0 {
					log.Printf("reset token sweep removed %d rows", deleted)
				}
			}
		}
	}()
}
