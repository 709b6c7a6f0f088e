package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	repo "github.com/eohue/ibookee-web-sub000/internal/domain/repository"
	"github.com/eohue/ibookee-web-sub000/pkg/password"
)

// PasswordHasher derives and checks stored password credentials.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, credential string) (bool, error)
}

// LocalAuth is the email + password strategy.
type LocalAuth struct {
	Repo     repo.UserRepository
	Hasher   PasswordHasher
	Logger   *logrus.Logger
	Notifier Notifier
	Indexer  UserIndexer
}

func NewLocalAuth(users repo.UserRepository, hasher PasswordHasher, logger *logrus.Logger, notifier Notifier, indexer UserIndexer) *LocalAuth {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if indexer == nil {
		indexer = NopIndexer{}
	}
	return &LocalAuth{Repo: users, Hasher: hasher, Logger: logger, Notifier: notifier, Indexer: indexer}
}

// Authenticate validates email/password. Every failure the caller may see is
// ErrInvalidCredentials; the reason is only logged.
func (s *LocalAuth) Authenticate(ctx context.Context, email, pw string) (*entity.User, error) {
	email = normalizeEmail(email)
	if email == "" || pw == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.Repo.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		s.Logger.WithField("reason", "unknown email").Debug("local login rejected")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if u.PasswordHash == "" {
		s.Logger.WithField("user_id", u.ID).WithField("reason", "no local password").Debug("local login rejected")
		return nil, ErrInvalidCredentials
	}

	ok, err := s.Hasher.Verify(ctx, pw, u.PasswordHash)
	if errors.Is(err, password.ErrMalformedCredential) {
		s.Logger.WithError(err).WithField("user_id", u.ID).Error("stored password credential is corrupt")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.Logger.WithField("user_id", u.ID).WithField("reason", "wrong password").Debug("local login rejected")
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

type RegisterInput struct {
	Email    string
	Password string
	RealName string
	Nickname string
}

// Register creates a local account with role user. The email pre-check is an
// early exit only: a concurrent registration that wins the insert is detected
// through the store's unique constraint and reported as ErrDuplicateAccount.
func (s *LocalAuth) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	if err := requireFields(map[string]string{
		"username": in.Email,
		"password": in.Password,
		"realName": in.RealName,
		"nickname": in.Nickname,
	}); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateAccount
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := s.Hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &entity.User{
		Email:        email,
		PasswordHash: hash,
		Role:         entity.RoleUser,
		RealName:     strings.TrimSpace(in.RealName),
		Nickname:     strings.TrimSpace(in.Nickname),
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.Logger.WithField("user_id", u.ID).Info("user registered")
	s.Notifier.Welcome(ctx, u)
	s.Indexer.Index(ctx, u)
	return u, nil
}

// ChangePassword replaces the user's password. A user without a password
// (federated-only) may attach one; otherwise current must verify.
func (s *LocalAuth) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := requireFields(map[string]string{"newPassword": next}); err != nil {
		return err
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}

	if u.PasswordHash != "" {
		ok, err := s.Hasher.Verify(ctx, current, u.PasswordHash)
		if err != nil && !errors.Is(err, password.ErrMalformedCredential) {
			return fmt.Errorf("verify password: %w", err)
		}
		if err != nil || !ok {
			return ErrInvalidCredentials
		}
	}

	hash, err := s.Hasher.Hash(ctx, next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Repo.SetPasswordHash(ctx, u.ID, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	s.Logger.WithField("user_id", u.ID).Info("password changed")
	return nil
}
