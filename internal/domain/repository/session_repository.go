package repository

import (
	"context"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

// SessionRepository persists sessions with a TTL.
type SessionRepository interface {
	Create(ctx context.Context, s *entity.Session) error
	// Get returns ErrSessionNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (*entity.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUserID removes every session of the user.
	DeleteByUserID(ctx context.Context, userID string) error
}
