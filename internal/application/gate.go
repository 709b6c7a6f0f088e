package application

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	repo "github.com/eohue/ibookee-web-sub000/internal/domain/repository"
)

// Gate turns authentication results into sessions and sessions back into users.
//
// A session stores only the user id. Authenticate re-reads the User from the
// user store on every call, so role changes and deletions apply to the very
// next request. Callers must not cache the returned user across requests.
type Gate struct {
	Sessions repo.SessionRepository
	Users    repo.UserRepository
	TTL      time.Duration
	Logger   *logrus.Logger

	now func() time.Time
}

func NewGate(sessions repo.SessionRepository, users repo.UserRepository, ttl time.Duration, logger *logrus.Logger) *Gate {
	return &Gate{Sessions: sessions, Users: users, TTL: ttl, Logger: logger, now: time.Now}
}

// StartSession persists a new session for u under a fresh random id.
func (g *Gate) StartSession(ctx context.Context, u *entity.User) (*entity.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	now := g.now()
	s := &entity.Session{ID: id, UserID: u.ID, CreatedAt: now, ExpiresAt: now.Add(g.TTL)}
	if err := g.Sessions.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	return s, nil
}

// Authenticate resolves a session id to its user. It returns ErrUnauthorized
// for a missing, unknown or expired session and for a session whose user no
// longer exists; such orphaned sessions are deleted. Any other error means the
// decision could not be made and must be treated as a denial.
func (g *Gate) Authenticate(ctx context.Context, sessionID string) (*entity.User, error) {
	if sessionID == "" {
		return nil, ErrUnauthorized
	}
	s, err := g.Sessions.Get(ctx, sessionID)
	if errors.Is(err, repo.ErrSessionNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s.Expired(g.now()) {
		g.reap(ctx, s.ID, "expired")
		return nil, ErrUnauthorized
	}

	u, err := g.Users.GetByID(ctx, s.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		g.reap(ctx, s.ID, "user deleted")
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	return u, nil
}

// Authorize requires the user to hold the admin role.
func (g *Gate) Authorize(u *entity.User) error {
	if u == nil {
		return ErrUnauthorized
	}
	if !u.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// EndSession deletes the session server side so its id cannot be replayed.
func (g *Gate) EndSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := g.Sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, repo.ErrSessionNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// EndAllSessions deletes every session of the user.
func (g *Gate) EndAllSessions(ctx context.Context, userID string) error {
	if err := g.Sessions.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (g *Gate) reap(ctx context.Context, sessionID, reason string) {
	if err := g.Sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, repo.ErrSessionNotFound) {
		g.Logger.WithError(err).WithField("reason", reason).Warn("failed to reap session")
	}
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
