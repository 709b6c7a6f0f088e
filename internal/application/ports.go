package application

import (
	"context"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

// Notifier delivers user-facing notifications. Delivery is best effort:
// implementations log failures and never block authentication.
type Notifier interface {
	Welcome(ctx context.Context, u *entity.User)
	AccountLinked(ctx context.Context, u *entity.User, p entity.Provider)
}

// UserIndexer mirrors users into the admin search index, best effort.
type UserIndexer interface {
	Index(ctx context.Context, u *entity.User)
	Remove(ctx context.Context, userID string)
	Search(ctx context.Context, query string, size int) ([]map[string]any, error)
}

// ProviderAdapter turns an OAuth authorization code into an assertion. state is
// the value already verified by the caller; some providers require it again on
// the token exchange.
type ProviderAdapter interface {
	Name() entity.Provider
	AuthCodeURL(state string) string
	Resolve(ctx context.Context, code, state string) (entity.FederatedAssertion, error)
}

type NopNotifier struct{}

func (NopNotifier) Welcome(context.Context, *entity.User)                        {}
func (NopNotifier) AccountLinked(context.Context, *entity.User, entity.Provider) {}

type NopIndexer struct{}

func (NopIndexer) Index(context.Context, *entity.User) {}
func (NopIndexer) Remove(context.Context, string)      {}
func (NopIndexer) Search(context.Context, string, int) ([]map[string]any, error) {
	return []map[string]any{}, nil
}
