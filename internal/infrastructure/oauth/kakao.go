package oauth

import (
	"strconv"

	"golang.org/x/oauth2"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:   "https://kauth.kakao.com/oauth/authorize",
	TokenURL:  "https://kauth.kakao.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const kakaoUserInfoURL = "https://kapi.kakao.com/v2/user/me"

type kakaoUser struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email           string `json:"email"`
		IsEmailValid    *bool  `json:"is_email_valid"`
		IsEmailVerified *bool  `json:"is_email_verified"`
		Profile         struct {
			Nickname        string `json:"nickname"`
			ProfileImageURL string `json:"profile_image_url"`
		} `json:"profile"`
	} `json:"kakao_account"`
	Properties struct {
		Nickname     string `json:"nickname"`
		ProfileImage string `json:"profile_image"`
	} `json:"properties"`
}

func NewKakao(creds Credentials, opts ...Option) *Adapter {
	return newAdapter(entity.ProviderKakao, creds, kakaoEndpoint, nil, kakaoUserInfoURL, decodeKakao, opts...)
}

func decodeKakao(body []byte) (entity.FederatedAssertion, error) {
	u, err := decodeJSON[kakaoUser](body)
	if err != nil {
		return entity.FederatedAssertion{}, err
	}
	acc := u.KakaoAccount

	a := entity.FederatedAssertion{
		Email:       acc.Email,
		DisplayName: acc.Profile.Nickname,
		AvatarURL:   acc.Profile.ProfileImageURL,
	}
	if u.ID != 0 {
		a.ProviderID = strconv.FormatInt(u.ID, 10)
	}
	if a.DisplayName == "" {
		a.DisplayName = u.Properties.Nickname
	}
	if a.AvatarURL == "" {
		a.AvatarURL = u.Properties.ProfileImage
	}
	if (acc.IsEmailValid != nil && !*acc.IsEmailValid) || (acc.IsEmailVerified != nil && !*acc.IsEmailVerified) {
		a.Email = ""
	}
	return a, nil
}
