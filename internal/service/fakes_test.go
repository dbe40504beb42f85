package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/njprem/authcore/internal/domain"
)

// memResetTokenRepo mirrors the SQL predicates of the postgres repository in
// memory, including the conditional mark-used guard.
type memResetTokenRepo struct {
	mu     sync.Mutex
	nextID int64
	tokens []*domain.ResetToken

	createErr error
	listErr   error
}

func (m *memResetTokenRepo) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*domain.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	token := &domain.ResetToken{
		ID:        m.nextID,
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	m.tokens = append(m.tokens, token)
	clone := *token
	return &clone, nil
}

func (m *memResetTokenRepo) LatestByUser(ctx context.Context, userID uuid.UUID) (*domain.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.ResetToken
	for _, t := range m.tokens {
		if t.UserID != userID {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	clone := *latest
	return &clone, nil
}

func (m *memResetTokenRepo) ListActive(ctx context.Context, now time.Time, limit int) ([]domain.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.ResetToken
	for i := len(m.tokens) - 1; i >= 0 && len(out) < limit; i-- {
		t := m.tokens[i]
		if t.UsedAt == nil && t.ExpiresAt.After(now) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memResetTokenRepo) ListRecentInactive(ctx context.Context, now time.Time, limit int) ([]domain.ResetToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ResetToken
	for i := len(m.tokens) - 1; i >= 0 && len(out) < limit; i-- {
		t := m.tokens[i]
		if t.UsedAt != nil || !t.ExpiresAt.After(now) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memResetTokenRepo) MarkUsed(ctx context.Context, id int64, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.ID == id && t.UsedAt == nil {
			usedAt := now
			t.UsedAt = &usedAt
			return true, nil
		}
	}
	return false, nil
}

func (m *memResetTokenRepo) ExpireActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID && t.UsedAt == nil && t.ExpiresAt.After(now) {
			t.ExpiresAt = now
		}
	}
	return nil
}

func (m *memResetTokenRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*domain.ResetToken
	var deleted int64
	for _, t := range m.tokens {
		if t.ExpiresAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.tokens = kept
	return deleted, nil
}

func (m *memResetTokenRepo) Stats(ctx context.Context, now time.Time) (*domain.ResetTokenStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.ResetTokenStats{}
	for _, t := range m.tokens {
		switch {
		case t.UsedAt != nil:
			stats.Used++
		case t.ExpiresAt.After(now):
			stats.Active++
		default:
			stats.Expired++
		}
	}
	return stats, nil
}

func (m *memResetTokenRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (m *memUserRepo) addUser(email, passwordHash string) *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[user.ID] = user
	return user
}

func (m *memUserRepo) Create(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	m.mu.Lock()
	for _, u := range m.users {
		if u.Email == email {
			m.mu.Unlock()
			return nil, &pgconn.PgError{Code: uniqueViolationCode}
		}
	}
	m.mu.Unlock()
	return m.addUser(email, passwordHash), nil
}

func (m *memUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *memUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (m *memUserRepo) storedHash(id uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u.PasswordHash
	}
	return ""
}

type fakeSessionRepo struct {
	created     []domain.Session
	deactivated []string
	findErr     error
}

func (f *fakeSessionRepo) CreateSession(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.Session, error) {
	session := domain.Session{ID: int64(len(f.created) + 1), UserID: userID, Token: token, ExpiresAt: expiresAt, IsActive: true}
	f.created = append(f.created, session)
	return &session, nil
}

func (f *fakeSessionRepo) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for i := range f.created {
		if f.created[i].Token == token {
			return &f.created[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSessionRepo) DeactivateSession(ctx context.Context, token string) error {
	f.deactivated = append(f.deactivated, token)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []struct {
		email string
		url   string
	}
	err error
}

func (f *fakeMailer) SendPasswordReset(ctx context.Context, email, resetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, struct {
		email string
		url   string
	}{email: email, url: resetURL})
	return f.err
}

func (f *fakeMailer) lastURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].url
}

func (f *fakeMailer) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
