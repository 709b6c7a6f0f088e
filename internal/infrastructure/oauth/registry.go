package oauth

import (
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

// NewAdapters builds an adapter for every provider whose credentials are
// complete. A provider without credentials is left out, which disables its
// login routes.
func NewAdapters(creds map[entity.Provider]Credentials, logger *logrus.Logger, opts ...Option) []application.ProviderAdapter {
	var out []application.ProviderAdapter
	for _, p := range entity.FederatedProviders {
		c := creds[p]
		if !c.Configured() {
			logger.WithField("provider", p).Info("federated login disabled: client credentials not set")
			continue
		}
		switch p {
		case entity.ProviderGoogle:
			out = append(out, NewGoogle(c, opts...))
		case entity.ProviderNaver:
			out = append(out, NewNaver(c, opts...))
		case entity.ProviderKakao:
			out = append(out, NewKakao(c, opts...))
		}
	}
	return out
}
