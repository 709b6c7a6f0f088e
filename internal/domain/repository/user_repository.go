package repository

import (
	"context"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
//
// Implementations must enforce uniqueness of email and of every provider id and
// report violations as ErrDuplicateEmail / ErrDuplicateProviderID. That
// constraint is the only concurrency guard the callers rely on.
//
// There is no whole-row update. Each write below touches only the columns its
// operation owns, so a login never writes back a role or verification state
// it read earlier.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByProviderID(ctx context.Context, p entity.Provider, providerID string) (*entity.User, error)
	// UpdateFederatedProfile applies p to the user and returns the stored row.
	UpdateFederatedProfile(ctx context.Context, id string, p FederatedProfile) (*entity.User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
	SetRole(ctx context.Context, id string, role entity.Role) (*entity.User, error)
	// SetVerification marks the user verified with the given real name and phone.
	SetVerification(ctx context.Context, id, realName, phone string) (*entity.User, error)
	Delete(ctx context.Context, id string) error
}

// FederatedProfile is what a federated login may write onto an existing user.
// Blank fields leave the stored value alone. Email only fills an empty one.
// LastName is written whenever FirstName is.
type FederatedProfile struct {
	Provider   entity.Provider
	ProviderID string
	Email      string
	FirstName  string
	LastName   string
	AvatarURL  string
}

// Apply writes p onto u the way the stores do. It fails with
// ErrProviderLinked when u already holds another id for p.Provider.
func (p FederatedProfile) Apply(u *entity.User) error {
	if cur := u.ProviderID(p.Provider); cur != "" && cur != p.ProviderID {
		return ErrProviderLinked
	}
	u.SetProviderID(p.Provider, p.ProviderID)
	if u.Email == "" {
		u.Email = p.Email
	}
	if p.FirstName != "" {
		u.FirstName, u.LastName = p.FirstName, p.LastName
	}
	if p.AvatarURL != "" {
		u.ProfileImageURL = p.AvatarURL
	}
	return nil
}
