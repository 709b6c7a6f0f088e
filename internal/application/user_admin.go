package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	repo "github.com/eohue/ibookee-web-sub000/internal/domain/repository"
)

// UserAdmin holds the explicit administrative actions on users.
type UserAdmin struct {
	Repo    repo.UserRepository
	Gate    *Gate
	Indexer UserIndexer
	Logger  *logrus.Logger
}

func NewUserAdmin(users repo.UserRepository, gate *Gate, indexer UserIndexer, logger *logrus.Logger) *UserAdmin {
	if indexer == nil {
		indexer = NopIndexer{}
	}
	return &UserAdmin{Repo: users, Gate: gate, Indexer: indexer, Logger: logger}
}

func (s *UserAdmin) Get(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

// SetRole is the only operation that changes a user's role.
func (s *UserAdmin) SetRole(ctx context.Context, actorID, userID string, role entity.Role) (*entity.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Role == role {
		return u, nil
	}
	prev := u.Role
	u, err = s.Repo.SetRole(ctx, userID, role)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	s.Logger.WithFields(logrus.Fields{
		"actor_id": actorID,
		"user_id":  u.ID,
		"from":     prev,
		"to":       role,
	}).Warn("user role changed")
	s.Indexer.Index(ctx, u)
	return u, nil
}

// Verify records identity verification. It is independent of login.
func (s *UserAdmin) Verify(ctx context.Context, actorID, userID, realName, phone string) (*entity.User, error) {
	if err := requireFields(map[string]string{"realName": realName}); err != nil {
		return nil, err
	}
	u, err := s.Repo.SetVerification(ctx, userID, strings.TrimSpace(realName), strings.TrimSpace(phone))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update verification: %w", err)
	}
	s.Logger.WithFields(logrus.Fields{"actor_id": actorID, "user_id": u.ID}).Info("user verified")
	s.Indexer.Index(ctx, u)
	return u, nil
}

// Delete removes the user and every session referencing it. A failure to
// delete the sessions is logged only: the gate already rejects sessions
// whose user is gone.
func (s *UserAdmin) Delete(ctx context.Context, actorID, userID string) error {
	if err := s.Repo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	if err := s.Gate.EndAllSessions(ctx, userID); err != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("sessions of deleted user not removed")
	}
	s.Indexer.Remove(ctx, userID)
	s.Logger.WithFields(logrus.Fields{"actor_id": actorID, "user_id": userID}).Warn("user deleted")
	return nil
}

// Search queries the admin search index.
func (s *UserAdmin) Search(ctx context.Context, query string, size int) ([]map[string]any, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	return s.Indexer.Search(ctx, strings.TrimSpace(query), size)
}
