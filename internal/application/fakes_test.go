package application

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	repo "github.com/eohue/ibookee-web-sub000/internal/domain/repository"
	"github.com/eohue/ibookee-web-sub000/pkg/password"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func cheapHasher() *password.Hasher {
	return password.NewHasher(password.Params{N: 16, R: 1, P: 1, SaltLength: 16, KeyLength: 32}, 4)
}

// memUsers enforces the same uniqueness rules as the users table.
type memUsers struct {
	mu   sync.Mutex
	byID map[string]entity.User
	fail error
	// beforeCreate runs outside the lock, ahead of the uniqueness check.
	beforeCreate func(u *entity.User)
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]entity.User)}
}

func (m *memUsers) conflict(u *entity.User) error {
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

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	if m.beforeCreate != nil {
		m.beforeCreate(u)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if err := m.conflict(u); err != nil {
		return err
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email != "" && u.Email == email {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) GetByProviderID(_ context.Context, p entity.Provider, providerID string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.ProviderID(p) == providerID {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

// mutate applies fn to a copy of the stored user under the lock and keeps
// the copy only if it still satisfies the uniqueness rules.
func (m *memUsers) mutate(id string, fn func(u *entity.User) error) (*entity.User, error) {
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
	u.UpdatedAt = time.Now()
	m.byID[id] = u
	return &u, nil
}

func (m *memUsers) UpdateFederatedProfile(_ context.Context, id string, p repo.FederatedProfile) (*entity.User, error) {
	return m.mutate(id, p.Apply)
}

func (m *memUsers) SetPasswordHash(_ context.Context, id, hash string) error {
	_, err := m.mutate(id, func(u *entity.User) error {
		u.PasswordHash = hash
		return nil
	})
	return err
}

func (m *memUsers) SetRole(_ context.Context, id string, role entity.Role) (*entity.User, error) {
	return m.mutate(id, func(u *entity.User) error {
		u.Role = role
		return nil
	})
}

func (m *memUsers) SetVerification(_ context.Context, id, realName, phone string) (*entity.User, error) {
	return m.mutate(id, func(u *entity.User) error {
		u.IsVerified, u.RealName, u.PhoneNumber = true, realName, phone
		return nil
	})
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// put stores u as-is and returns its id.
func (m *memUsers) put(u entity.User) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	m.byID[u.ID] = u
	return u.ID
}

type memSessions struct {
	mu   sync.Mutex
	byID map[string]entity.Session
	fail error
}

func newMemSessions() *memSessions {
	return &memSessions{byID: make(map[string]entity.Session)}
}

func (m *memSessions) Create(_ context.Context, s *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.byID[s.ID] = *s
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	s, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrSessionNotFound
	}
	return &s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrSessionNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memSessions) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.byID {
		if s.UserID == userID {
			delete(m.byID, id)
		}
	}
	return nil
}

func (m *memSessions) has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok
}

type recordingNotifier struct {
	mu      sync.Mutex
	welcome []string
	linked  []string
}

func (n *recordingNotifier) Welcome(_ context.Context, u *entity.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcome = append(n.welcome, u.ID)
}

func (n *recordingNotifier) AccountLinked(_ context.Context, u *entity.User, p entity.Provider) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.linked = append(n.linked, u.ID+"/"+string(p))
}

type recordingIndexer struct {
	mu      sync.Mutex
	indexed map[string]int
	removed []string
	hits    []map[string]any
}

func newRecordingIndexer() *recordingIndexer {
	return &recordingIndexer{indexed: make(map[string]int)}
}

func (i *recordingIndexer) Index(_ context.Context, u *entity.User) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.indexed[u.ID]++
}

func (i *recordingIndexer) Remove(_ context.Context, id string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.removed = append(i.removed, id)
}

func (i *recordingIndexer) Search(_ context.Context, _ string, size int) ([]map[string]any, error) {
	if len(i.hits) > size {
		return i.hits[:size], nil
	}
	return i.hits, nil
}

type stubAdapter struct {
	name      entity.Provider
	assertion entity.FederatedAssertion
	err       error
}

func (s *stubAdapter) Name() entity.Provider { return s.name }

func (s *stubAdapter) AuthCodeURL(state string) string {
	return "https://idp.example/authorize?state=" + state
}

func (s *stubAdapter) Resolve(context.Context, string, string) (entity.FederatedAssertion, error) {
	return s.assertion, s.err
}

// interleavedUsers calls between once, right after the next successful read,
// the way a concurrent request lands between a service's read and its write.
type interleavedUsers struct {
	*memUsers
	between func(u *entity.User)
}

func (m *interleavedUsers) interleave(u *entity.User, err error) (*entity.User, error) {
	if err == nil && m.between != nil {
		fn := m.between
		m.between = nil
		fn(u)
	}
	return u, err
}

func (m *interleavedUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return m.interleave(m.memUsers.GetByID(ctx, id))
}

func (m *interleavedUsers) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return m.interleave(m.memUsers.GetByEmail(ctx, email))
}

func (m *interleavedUsers) GetByProviderID(ctx context.Context, p entity.Provider, providerID string) (*entity.User, error) {
	return m.interleave(m.memUsers.GetByProviderID(ctx, p, providerID))
}
