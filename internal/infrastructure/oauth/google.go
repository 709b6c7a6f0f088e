package oauth

import (
	"golang.org/x/oauth2/google"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail *bool  `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func NewGoogle(creds Credentials, opts ...Option) *Adapter {
	return newAdapter(entity.ProviderGoogle, creds, google.Endpoint,
		[]string{"openid", "email", "profile"}, googleUserInfoURL, decodeGoogle, opts...)
}

func decodeGoogle(body []byte) (entity.FederatedAssertion, error) {
	u, err := decodeJSON[googleUser](body)
	if err != nil {
		return entity.FederatedAssertion{}, err
	}
	a := entity.FederatedAssertion{
		ProviderID:  u.ID,
		Email:       u.Email,
		DisplayName: u.Name,
		AvatarURL:   u.Picture,
	}
	// an unverified address must not link accounts
	if u.VerifiedEmail != nil && !*u.VerifiedEmail {
		a.Email = ""
	}
	return a, nil
}
