// Package oauth implements the federated login providers on top of
// golang.org/x/oauth2. Each adapter exchanges an authorization code for an
// access token, fetches the provider's user info and maps it to an
// entity.FederatedAssertion.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

var ErrMissingSubject = errors.New("oauth: provider returned no account id")

// Credentials are the client settings of one provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Configured reports whether both client id and secret are present.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type Option func(*Adapter)

// WithEndpoint overrides the provider URLs.
func WithEndpoint(authURL, tokenURL, userInfoURL string) Option {
	return func(a *Adapter) {
		a.conf.Endpoint.AuthURL = authURL
		a.conf.Endpoint.TokenURL = tokenURL
		a.userInfoURL = userInfoURL
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) { a.httpClient = c }
}

// decodeFunc maps a user info response body to an assertion.
type decodeFunc func(body []byte) (entity.FederatedAssertion, error)

// Adapter is a provider bound to its endpoints and user info mapping.
type Adapter struct {
	name        entity.Provider
	conf        *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	decode      decodeFunc

	// exchangeState forwards the state to the token endpoint
	exchangeState bool
}

func newAdapter(name entity.Provider, creds Credentials, endpoint oauth2.Endpoint, scopes []string,
	userInfoURL string, decode decodeFunc, opts ...Option) *Adapter {
	a := &Adapter{
		name: name,
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			RedirectURL:  creds.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		userInfoURL: userInfoURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		decode:      decode,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() entity.Provider { return a.name }

func (a *Adapter) AuthCodeURL(state string) string {
	return a.conf.AuthCodeURL(state)
}

func (a *Adapter) Resolve(ctx context.Context, code, state string) (entity.FederatedAssertion, error) {
	if code == "" {
		return entity.FederatedAssertion{}, errors.New("oauth: missing authorization code")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	var opts []oauth2.AuthCodeOption
	if a.exchangeState {
		opts = append(opts, oauth2.SetAuthURLParam("state", state))
	}
	tok, err := a.conf.Exchange(ctx, code, opts...)
	if err != nil {
		return entity.FederatedAssertion{}, fmt.Errorf("exchange %s code: %w", a.name, err)
	}

	body, err := a.fetchUserInfo(ctx, tok.AccessToken)
	if err != nil {
		return entity.FederatedAssertion{}, fmt.Errorf("fetch %s user: %w", a.name, err)
	}
	assertion, err := a.decode(body)
	if err != nil {
		return entity.FederatedAssertion{}, fmt.Errorf("decode %s user: %w", a.name, err)
	}
	if assertion.ProviderID == "" {
		return entity.FederatedAssertion{}, ErrMissingSubject
	}
	assertion.Provider = a.name
	return assertion, nil
}

func (a *Adapter) fetchUserInfo(ctx context.Context, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

func decodeJSON[T any](body []byte) (T, error) {
	var v T
	err := json.Unmarshal(body, &v)
	return v, err
}

var _ application.ProviderAdapter = (*Adapter)(nil)
