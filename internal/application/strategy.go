package application

import (
	"context"
	"fmt"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

// AuthConfig is the set of active authentication strategies. It is built once
// at startup and shared read-only by every request.
//
// The local strategy is always active; a federated strategy is active only
// when its adapter was supplied.
type AuthConfig struct {
	Local    *LocalAuth
	Resolver *IdentityResolver
	Gate     *Gate

	providers map[entity.Provider]ProviderAdapter
}

func NewAuthConfig(local *LocalAuth, resolver *IdentityResolver, gate *Gate, adapters ...ProviderAdapter) *AuthConfig {
	c := &AuthConfig{
		Local:     local,
		Resolver:  resolver,
		Gate:      gate,
		providers: make(map[entity.Provider]ProviderAdapter, len(adapters)),
	}
	for _, a := range adapters {
		if a != nil && a.Name().IsFederated() {
			c.providers[a.Name()] = a
		}
	}
	return c
}

// Provider returns the adapter of an active federated strategy.
func (c *AuthConfig) Provider(p entity.Provider) (ProviderAdapter, bool) {
	a, ok := c.providers[p]
	return a, ok
}

// Strategies lists the active strategies, local first.
func (c *AuthConfig) Strategies() []entity.Provider {
	out := []entity.Provider{entity.ProviderLocal}
	for _, p := range entity.FederatedProviders {
		if _, ok := c.providers[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// LoginWithProvider completes a federated login: the adapter exchanges the
// code for an assertion, which the resolver maps to the canonical user.
func (c *AuthConfig) LoginWithProvider(ctx context.Context, p entity.Provider, code, state string) (*entity.User, error) {
	a, ok := c.Provider(p)
	if !ok {
		return nil, fmt.Errorf("%w: %s login is not configured", ErrProviderFailure, p)
	}
	assertion, err := a.Resolve(ctx, code, state)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderFailure, p, err)
	}
	return c.Resolver.LinkOrCreateFederatedUser(ctx, assertion)
}
