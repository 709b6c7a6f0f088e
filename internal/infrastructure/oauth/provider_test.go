package oauth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
)

// fakeProvider serves a token endpoint and a user info endpoint.
type fakeProvider struct {
	*httptest.Server

	mu         sync.Mutex
	tokenForm  url.Values
	userInfo   string
	userStatus int
	tokenFail  bool
}

func newFakeProvider(t *testing.T, userInfo string) *fakeProvider {
	t.Helper()
	f := &fakeProvider{userInfo: userInfo, userStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		f.mu.Lock()
		f.tokenForm = r.PostForm
		fail := f.tokenFail
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-123",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.userStatus)
		_, _ = io.WriteString(w, f.userInfo)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeProvider) endpoint() Option {
	return WithEndpoint(f.URL+"/authorize", f.URL+"/token", f.URL+"/userinfo")
}

var testCreds = Credentials{ClientID: "client", ClientSecret: "secret", RedirectURL: "http://localhost/cb"}

func TestGoogle_Resolve(t *testing.T) {
	f := newFakeProvider(t, `{"id":"1089","email":"kim@gmail.com","verified_email":true,"name":"Kim Minsu","picture":"https://lh3/p.png"}`)
	a := NewGoogle(testCreds, f.endpoint())

	got, err := a.Resolve(context.Background(), "code-1", "st")
	require.NoError(t, err)
	assert.Equal(t, entity.FederatedAssertion{
		Provider:    entity.ProviderGoogle,
		ProviderID:  "1089",
		Email:       "kim@gmail.com",
		DisplayName: "Kim Minsu",
		AvatarURL:   "https://lh3/p.png",
	}, got)
	assert.Equal(t, "code-1", f.tokenForm.Get("code"))
	assert.Equal(t, "client", f.tokenForm.Get("client_id"))
}

func TestGoogle_UnverifiedEmailIsDropped(t *testing.T) {
	f := newFakeProvider(t, `{"id":"1089","email":"kim@gmail.com","verified_email":false}`)
	got, err := NewGoogle(testCreds, f.endpoint()).Resolve(context.Background(), "code", "st")
	require.NoError(t, err)
	assert.Empty(t, got.Email)
	assert.Equal(t, "1089", got.ProviderID)
}

func TestNaver_Resolve(t *testing.T) {
	f := newFakeProvider(t, `{"resultcode":"00","message":"success","response":{"id":"nv-32","email":"lee@naver.com","nickname":"lee","profile_image":"https://phinf/x.jpg"}}`)
	a := NewNaver(testCreds, f.endpoint())

	got, err := a.Resolve(context.Background(), "code-2", "state-xyz")
	require.NoError(t, err)
	assert.Equal(t, entity.ProviderNaver, got.Provider)
	assert.Equal(t, "nv-32", got.ProviderID)
	assert.Equal(t, "lee", got.DisplayName)
	assert.Equal(t, "state-xyz", f.tokenForm.Get("state"))
	assert.Equal(t, "secret", f.tokenForm.Get("client_secret"))
}

func TestNaver_ErrorResultCode(t *testing.T) {
	f := newFakeProvider(t, `{"resultcode":"024","message":"Authentication failed"}`)
	_, err := NewNaver(testCreds, f.endpoint()).Resolve(context.Background(), "code", "st")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "024")
}

func TestKakao_Resolve(t *testing.T) {
	f := newFakeProvider(t, `{
		"id": 2981234567,
		"kakao_account": {
			"email": "park@kakao.com",
			"is_email_valid": true,
			"is_email_verified": true,
			"profile": {"nickname": "park", "profile_image_url": "https://k.kakaocdn.net/p.jpg"}
		}
	}`)
	got, err := NewKakao(testCreds, f.endpoint()).Resolve(context.Background(), "code", "st")
	require.NoError(t, err)
	assert.Equal(t, "2981234567", got.ProviderID)
	assert.Equal(t, "park@kakao.com", got.Email)
	assert.Equal(t, "park", got.DisplayName)
	assert.Empty(t, f.tokenForm.Get("state"))
}

func TestKakao_NoEmailConsentFallsBackToProperties(t *testing.T) {
	f := newFakeProvider(t, `{"id": 7, "properties": {"nickname": "anon", "profile_image": "https://k/p.jpg"}}`)
	got, err := NewKakao(testCreds, f.endpoint()).Resolve(context.Background(), "code", "st")
	require.NoError(t, err)
	assert.Equal(t, "7", got.ProviderID)
	assert.Empty(t, got.Email)
	assert.Equal(t, "anon", got.DisplayName)
	assert.Equal(t, "https://k/p.jpg", got.AvatarURL)
}

func TestResolve_Failures(t *testing.T) {
	t.Run("token exchange rejected", func(t *testing.T) {
		f := newFakeProvider(t, `{}`)
		f.tokenFail = true
		_, err := NewGoogle(testCreds, f.endpoint()).Resolve(context.Background(), "code", "st")
		assert.Error(t, err)
	})
	t.Run("user info non-200", func(t *testing.T) {
		f := newFakeProvider(t, `{}`)
		f.userStatus = http.StatusInternalServerError
		_, err := NewGoogle(testCreds, f.endpoint()).Resolve(context.Background(), "code", "st")
		assert.Error(t, err)
	})
	t.Run("missing subject", func(t *testing.T) {
		f := newFakeProvider(t, `{"email":"x@y.z"}`)
		_, err := NewGoogle(testCreds, f.endpoint()).Resolve(context.Background(), "code", "st")
		assert.ErrorIs(t, err, ErrMissingSubject)
	})
	t.Run("missing code", func(t *testing.T) {
		_, err := NewGoogle(testCreds).Resolve(context.Background(), "", "st")
		assert.Error(t, err)
	})
}

func TestAuthCodeURL_CarriesState(t *testing.T) {
	u, err := url.Parse(NewKakao(testCreds).AuthCodeURL("st-1"))
	require.NoError(t, err)
	assert.Equal(t, "kauth.kakao.com", u.Host)
	assert.Equal(t, "st-1", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost/cb", u.Query().Get("redirect_uri"))
}

func TestNewAdapters_SkipsUnconfigured(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	got := NewAdapters(map[entity.Provider]Credentials{
		entity.ProviderGoogle: testCreds,
		entity.ProviderNaver:  {ClientID: "only-id"},
		entity.ProviderKakao:  testCreds,
	}, logger)

	var names []entity.Provider
	for _, a := range got {
		names = append(names, a.Name())
	}
	assert.Equal(t, []entity.Provider{entity.ProviderGoogle, entity.ProviderKakao}, names)
}
