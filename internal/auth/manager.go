package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/ugcstudio/backend/internal/models"
)

var (
	// ErrSessionNotFound indicates the provided token does not map to an active session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the session exists but is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// SessionStore persists issued session tokens so they survive process restarts.
type SessionStore interface {
	Save(ctx context.Context, session models.Session) error
	Find(ctx context.Context, token string) (models.Session, error)
	Delete(ctx context.Context, token string) error
}

// UserDirectory resolves user records when a session token is presented.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Manager issues opaque session tokens and resolves them to caller identities.
// Expiry is lazy: an expired session is deleted on lookup, not reaped.
type Manager struct {
	ttl     time.Duration
	store   SessionStore
	users   UserDirectory
	nowFunc func() time.Time
}

// NewManager constructs a Manager issuing sessions with the provided TTL.
func NewManager(ttl time.Duration, store SessionStore, users UserDirectory) *Manager {
	if store == nil {
		panic("auth: session store must not be nil")
	}
	if users == nil {
		panic("auth: user directory must not be nil")
	}
	return &Manager{
		ttl:   ttl,
		store: store,
		users: users,
	}
}

// Issue creates a new session for the provided user identifier.
func (m *Manager) Issue(ctx context.Context, userID string) (models.Session, error) {
	if userID == "" {
		return models.Session{}, errors.New("user id must be provided")
	}

	token, err := randomToken()
	if err != nil {
		return models.Session{}, err
	}

	session := models.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: m.now().Add(m.ttl),
	}

	if err := m.store.Save(ctx, session); err != nil {
		return models.Session{}, fmt.Errorf("save session: %w", err)
	}

	return session, nil
}

// Resolve maps a session token to the owning user's identity. Expired or
// unknown tokens yield ErrSessionExpired/ErrSessionNotFound; callers treat
// both as an absent session.
func (m *Manager) Resolve(ctx context.Context, token string) (models.Identity, error) {
	if token == "" {
		return models.Identity{}, ErrSessionNotFound
	}

	session, err := m.store.Find(ctx, token)
	if err != nil {
		return models.Identity{}, err
	}

	if m.now().After(session.ExpiresAt) {
		_ = m.store.Delete(ctx, token)
		return models.Identity{}, ErrSessionExpired
	}

	user, err := m.users.FindByID(ctx, session.UserID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("resolve session user: %w", err)
	}

	return models.Identity{UserID: user.ID, Email: user.Email, Role: user.Role}, nil
}

// Revoke removes the provided session token from the store.
func (m *Manager) Revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	_ = m.store.Delete(ctx, token)
}

func (m *Manager) now() time.Time {
	if m.nowFunc != nil {
		return m.nowFunc()
	}
	return time.Now().UTC()
}

func randomToken() (string, error) {
	const size = 32
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
