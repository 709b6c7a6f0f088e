package entity

// Provider names an authentication strategy. The set is closed.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderNaver  Provider = "naver"
	ProviderKakao  Provider = "kakao"
)

// FederatedProviders lists the external identity providers in display order.
var FederatedProviders = []Provider{ProviderGoogle, ProviderNaver, ProviderKakao}

// IsFederated reports whether p is one of the external identity providers.
func (p Provider) IsFederated() bool {
	switch p {
	case ProviderGoogle, ProviderNaver, ProviderKakao:
		return true
	}
	return false
}

// FederatedAssertion is what a successful provider handshake yields.
// Email, DisplayName and AvatarURL are optional.
type FederatedAssertion struct {
	Provider    Provider
	ProviderID  string
	Email       string
	DisplayName string
	AvatarURL   string
}
