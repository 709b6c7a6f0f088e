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

// ErrLinkConflict is returned when the email owner already has a different
// account linked for the same provider.
var ErrLinkConflict = errors.New("email owner is linked to another account of this provider")

// IdentityResolver maps a provider assertion to exactly one canonical user.
type IdentityResolver struct {
	Repo     repo.UserRepository
	Logger   *logrus.Logger
	Notifier Notifier
	Indexer  UserIndexer
	// LinkByEmail allows a new provider identity to attach itself to the user
	// owning the same email. Disabling it turns such logins into ErrLinkingDisabled.
	LinkByEmail bool
}

func NewIdentityResolver(users repo.UserRepository, logger *logrus.Logger, notifier Notifier, indexer UserIndexer, linkByEmail bool) *IdentityResolver {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if indexer == nil {
		indexer = NopIndexer{}
	}
	return &IdentityResolver{Repo: users, Logger: logger, Notifier: notifier, Indexer: indexer, LinkByEmail: linkByEmail}
}

// LinkOrCreateFederatedUser resolves a, in order: by provider id, by email
// (account linking), or by creating a new user. The resolved user's provider
// id and display profile are then refreshed; role and verification fields are
// never touched.
//
// Linking by email trusts the provider's claim of the address. Every link is
// logged at warn level and announced to the account's address.
func (r *IdentityResolver) LinkOrCreateFederatedUser(ctx context.Context, a entity.FederatedAssertion) (*entity.User, error) {
	if !a.Provider.IsFederated() || strings.TrimSpace(a.ProviderID) == "" {
		return nil, fmt.Errorf("%w: incomplete assertion from %q", ErrProviderFailure, a.Provider)
	}
	a.Email = normalizeEmail(a.Email)

	u, linking, err := r.find(ctx, a)
	if err != nil {
		return nil, err
	}

	if u == nil {
		if a.Email == "" {
			return nil, ErrEmailRequiredForSignup
		}
		u, err = r.create(ctx, a)
		switch {
		case err == nil:
			return u, nil
		case errors.Is(err, repo.ErrDuplicateEmail), errors.Is(err, repo.ErrDuplicateProviderID):
			// a concurrent login created the record first; resolve against it
			u, linking, err = r.find(ctx, a)
			if err != nil {
				return nil, err
			}
			if u == nil {
				return nil, fmt.Errorf("resolve %s user after duplicate insert: %w", a.Provider, repo.ErrNotFound)
			}
		default:
			return nil, err
		}
	}

	candidate := u.ID
	u, err = r.refresh(ctx, u, a)
	if err != nil {
		return nil, err
	}
	if linking && u.ID == candidate {
		r.Logger.WithFields(logrus.Fields{
			"user_id":     u.ID,
			"provider":    a.Provider,
			"provider_id": a.ProviderID,
		}).Warn("provider account linked to existing user by email")
		r.Notifier.AccountLinked(ctx, u, a.Provider)
	}
	return u, nil
}

// find runs the lookup steps. linking is true when the user was found by email
// and does not yet own this provider id.
func (r *IdentityResolver) find(ctx context.Context, a entity.FederatedAssertion) (u *entity.User, linking bool, err error) {
	u, err = r.Repo.GetByProviderID(ctx, a.Provider, a.ProviderID)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup user by %s id: %w", a.Provider, err)
	}
	if a.Email == "" {
		return nil, false, nil
	}

	u, err = r.Repo.GetByEmail(ctx, a.Email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup user by email: %w", err)
	}
	if !r.LinkByEmail {
		return nil, false, ErrLinkingDisabled
	}
	if existing := u.ProviderID(a.Provider); existing != "" && existing != a.ProviderID {
		return nil, false, ErrLinkConflict
	}
	return u, true, nil
}

func (r *IdentityResolver) create(ctx context.Context, a entity.FederatedAssertion) (*entity.User, error) {
	first, last := splitDisplayName(a.DisplayName)
	u := &entity.User{
		Email:           a.Email,
		Role:            entity.RoleUser,
		Nickname:        strings.TrimSpace(a.DisplayName),
		FirstName:       first,
		LastName:        last,
		ProfileImageURL: a.AvatarURL,
	}
	u.SetProviderID(a.Provider, a.ProviderID)

	if err := r.Repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create %s user: %w", a.Provider, err)
	}
	r.Logger.WithFields(logrus.Fields{"user_id": u.ID, "provider": a.Provider}).Info("user created from federated login")
	r.Indexer.Index(ctx, u)
	return u, nil
}

// refresh writes the assertion's provider id and profile onto u. Only the
// profile columns are sent to the store; the returned user is the stored row,
// so a role or verification change made since u was read is kept.
func (r *IdentityResolver) refresh(ctx context.Context, u *entity.User, a entity.FederatedAssertion) (*entity.User, error) {
	p := repo.FederatedProfile{Provider: a.Provider, ProviderID: a.ProviderID, AvatarURL: a.AvatarURL}
	p.FirstName, p.LastName = splitDisplayName(a.DisplayName)
	if u.Email == "" {
		p.Email = a.Email
	}

	changed := u.ProviderID(a.Provider) != a.ProviderID || p.Email != "" ||
		(p.FirstName != "" && (u.FirstName != p.FirstName || u.LastName != p.LastName)) ||
		(p.AvatarURL != "" && u.ProfileImageURL != p.AvatarURL)
	if !changed {
		return u, nil
	}

	updated, err := r.Repo.UpdateFederatedProfile(ctx, u.ID, p)
	if errors.Is(err, repo.ErrDuplicateEmail) && p.Email != "" {
		r.Logger.WithField("user_id", u.ID).Info("provider email belongs to another user; keeping account without email")
		p.Email = ""
		updated, err = r.Repo.UpdateFederatedProfile(ctx, u.ID, p)
	}
	switch {
	case errors.Is(err, repo.ErrDuplicateProviderID):
		// lost a race linking this provider id; the winner is canonical
		owner, gerr := r.Repo.GetByProviderID(ctx, a.Provider, a.ProviderID)
		if gerr != nil {
			return nil, fmt.Errorf("lookup %s owner after conflict: %w", a.Provider, gerr)
		}
		return owner, nil
	case errors.Is(err, repo.ErrProviderLinked):
		return nil, ErrLinkConflict
	case err != nil:
		return nil, fmt.Errorf("update user: %w", err)
	}
	r.Indexer.Index(ctx, updated)
	return updated, nil
}

// splitDisplayName is a best-effort split: the first word is the first name,
// the rest is the last name.
func splitDisplayName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
