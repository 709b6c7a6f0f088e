package oauth

import (
	"fmt"

	"golang.org/x/oauth2"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

var naverEndpoint = oauth2.Endpoint{
	AuthURL:   "https://nid.naver.com/oauth2.0/authorize",
	TokenURL:  "https://nid.naver.com/oauth2.0/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const naverUserInfoURL = "https://openapi.naver.com/v1/nid/me"

type naverUser struct {
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	Response   struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Name         string `json:"name"`
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"response"`
}

func NewNaver(creds Credentials, opts ...Option) *Adapter {
	a := newAdapter(entity.ProviderNaver, creds, naverEndpoint, nil, naverUserInfoURL, decodeNaver, opts...)
	a.exchangeState = true
	return a
}

func decodeNaver(body []byte) (entity.FederatedAssertion, error) {
	u, err := decodeJSON[naverUser](body)
	if err != nil {
		return entity.FederatedAssertion{}, err
	}
	if u.ResultCode != "00" {
		return entity.FederatedAssertion{}, fmt.Errorf("naver profile api: %s %s", u.ResultCode, u.Message)
	}
	name := u.Response.Name
	if name == "" {
		name = u.Response.Nickname
	}
	return entity.FederatedAssertion{
		ProviderID:  u.Response.ID,
		Email:       u.Response.Email,
		DisplayName: name,
		AvatarURL:   u.Response.ProfileImage,
	}, nil
}
