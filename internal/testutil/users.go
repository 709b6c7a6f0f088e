// Package testutil holds in-memory stand-ins for the stores, for tests that
// exercise the HTTP layer without Postgres.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	repo "github.com/eohue/ibookee-web-sub000/internal/domain/repository"
)

// Users is a repository.UserRepository with the uniqueness rules of the users table.
type Users struct {
	mu   sync.Mutex
	byID map[string]entity.User
}

func NewUsers() *Users {
	return &Users{byID: make(map[string]entity.User)}
}

func (m *Users) conflict(u *entity.User) error {
	for id, o := range m.byID {
		if id == u.ID {
			continue
		}
		if u.Email != "" && o.Email == u.Email {
			return repo.ErrDuplicateEmail
		}
		for _, p := range entity.FederatedProviders {
			if v := u.ProviderID(p); v != "" && o.ProviderID(p) == v {
				return repo.ErrDuplicateProviderID
			}
		}
	}
	return nil
}

func (m *Users) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(u); err != nil {
		return err
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = *u
	return nil
}

func (m *Users) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (m *Users) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	return m.find(func(u entity.User) bool { return email != "" && u.Email == email })
}

func (m *Users) GetByProviderID(_ context.Context, p entity.Provider, providerID string) (*entity.User, error) {
	return m.find(func(u entity.User) bool { return providerID != "" && u.ProviderID(p) == providerID })
}

func (m *Users) find(match func(entity.User) bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

// mutate applies fn to a copy of the stored user under the lock and keeps
// the copy only if it still satisfies the uniqueness rules.
func (m *Users) mutate(id string, fn func(u *entity.User) error) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return nil, err
	}
	if err := m.conflict(&u); err != nil {
		return nil, err
	}
	u.UpdatedAt = time.Now().UTC()
	m.byID[id] = u
	return &u, nil
}

func (m *Users) UpdateFederatedProfile(_ context.Context, id string, p repo.FederatedProfile) (*entity.User, error) {
	return m.mutate(id, p.Apply)
}

func (m *Users) SetPasswordHash(_ context.Context, id, hash string) error {
	_, err := m.mutate(id, func(u *entity.User) error {
		u.PasswordHash = hash
		return nil
	})
	return err
}

func (m *Users) SetRole(_ context.Context, id string, role entity.Role) (*entity.User, error) {
	return m.mutate(id, func(u *entity.User) error {
		u.Role = role
		return nil
	})
}

func (m *Users) SetVerification(_ context.Context, id, realName, phone string) (*entity.User, error) {
	return m.mutate(id, func(u *entity.User) error {
		u.IsVerified, u.RealName, u.PhoneNumber = true, realName, phone
		return nil
	})
}

func (m *Users) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// Put stores u as given and returns its id.
func (m *Users) Put(u entity.User) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.byID[u.ID] = u
	return u.ID
}

func (m *Users) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

var _ repo.UserRepository = (*Users)(nil)
