package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/authcore/internal/credential"
	"github.com/njprem/authcore/internal/domain"
	"github.com/njprem/authcore/internal/repository/ports"
	"github.com/njprem/authcore/internal/util"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPasswordTooWeak    = errors.New("password too weak")
	ErrSessionInvalid     = errors.New("session invalid")
)

const uniqueViolationCode = "23505"

// AuthService handles registration, login, sessions and password changes.
// Login accepts both the canonical scrypt hash format and legacy bcrypt
// hashes, migrating the latter transparently after a successful match.
type AuthService struct {
	users      ports.UserRepository
	sessions   ports.SessionRepository
	jwtManager *util.JWTManager
}

func NewAuthService(
	users ports.UserRepository,
	sessions ports.SessionRepository,
	jwtManager *util.JWTManager,
) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if err := util.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}

	passwordHash, err := credential.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, email, passwordHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies the password against whichever hash format the account
// carries. A missing account and a wrong password produce the same error;
// nothing above this layer can tell them apart.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", time.Time{}, ErrInvalidCredentials
		}
		return nil, "", time.Time{}, fmt.Errorf("find user by email: %w", err)
	}

	stored := credential.ParseStoredHash(user.PasswordHash)
	if !stored.Verify(password) {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	if stored.IsLegacy() {
		// Password is confirmed at this point; migrate to the canonical
		// format. A failed rehash leaves the legacy hash in place and the
		// login succeeds anyway.
		if err := s.RehashIfNeeded(ctx, user.ID, password, user.PasswordHash); err != nil {
			log.Printf("rehash for user %s failed: %v", user.ID, err)
		}
	}

	token, expiresAt, err := s.jwtManager.Generate(user.ID, user.Email, user.IsAdmin)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("generate token: %w", err)
	}
	if _, err := s.sessions.CreateSession(ctx, user.ID, token, expiresAt); err != nil {
		return nil, "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	return user, token, expiresAt, nil
}

// RehashIfNeeded upgrades a legacy bcrypt hash to the canonical format.
// The caller must have already verified the password against currentHash;
// this function does not re-check it. Canonical input is a no-op.
func (s *AuthService) RehashIfNeeded(ctx context.Context, userID uuid.UUID, password, currentHash string) error {
	if !credential.ParseStoredHash(currentHash).IsLegacy() {
		return nil
	}
	newHash, err := credential.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.jwtManager.Parse(token)
	if err != nil {
		return nil, ErrSessionInvalid
	}
	if _, err := s.sessions.FindActiveSession(ctx, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeactivateSession(ctx, token)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if !credential.Verify(currentPassword, user.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := util.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}
	newHash, err := credential.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}
