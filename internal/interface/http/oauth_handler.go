package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/config"
	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/internal/interface/middleware"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
	"github.com/eohue/ibookee-web-sub000/pkg/response"
)

// OAuthHandler runs the redirect half of every federated strategy.
type OAuthHandler struct {
	Auth    *application.AuthConfig
	State   *helpers.StateSigner
	Cookies *helpers.Manager
	Cfg     *config.Config
	Logger  *logrus.Logger
}

func NewOAuthHandler(auth *application.AuthConfig, state *helpers.StateSigner, cookies *helpers.Manager, cfg *config.Config, logger *logrus.Logger) *OAuthHandler {
	return &OAuthHandler{Auth: auth, State: state, Cookies: cookies, Cfg: cfg, Logger: logger}
}

// Begin redirects to the provider's consent page with a fresh signed state,
// mirrored in the state cookie.
func (h *OAuthHandler) Begin(p entity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := h.Auth.Provider(p)
		if !ok {
			response.Fail(c, http.StatusNotFound, "login provider not available", nil)
			return
		}
		state, err := h.State.Issue(string(p))
		if err != nil {
			writeError(c, h.Logger, err)
			return
		}
		h.Cookies.SetState(c, state, h.State.TTL())
		c.Redirect(http.StatusFound, a.AuthCodeURL(state))
	}
}

// Callback completes the handshake. Every failure, whatever the cause, ends
// in the same redirect to the sign-in page; the cause is only logged.
func (h *OAuthHandler) Callback(p entity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := h.Logger.WithFields(logrus.Fields{
			"provider":   p,
			"request_id": c.GetString("request_id"),
		})
		fail := func(reason string, err error) {
			if err != nil {
				log = log.WithError(err)
			}
			log.WithField("reason", reason).Warn("federated login failed")
			middleware.CountAuth(middleware.OutcomeFederatedError)
			c.Redirect(http.StatusFound, h.Cfg.FrontendPath("/auth?error="+string(p)+"_login_failed"))
		}

		cookieState := h.Cookies.State(c)
		h.Cookies.ClearState(c)

		if e := c.Query("error"); e != "" {
			fail("provider returned "+e, nil)
			return
		}
		state := c.Query("state")
		if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(cookieState)) != 1 {
			fail("state mismatch", nil)
			return
		}
		if err := h.State.Verify(state, string(p)); err != nil {
			fail("state rejected", err)
			return
		}
		code := c.Query("code")
		if code == "" {
			fail("missing code", nil)
			return
		}

		u, err := h.Auth.LoginWithProvider(c.Request.Context(), p, code, state)
		if err != nil {
			fail("resolve identity", err)
			return
		}
		s, err := h.Auth.Gate.StartSession(c.Request.Context(), u)
		if err != nil {
			fail("start session", err)
			return
		}
		h.Cookies.SetSession(c, s.ID, s.ExpiresAt)
		middleware.CountAuth(middleware.OutcomeFederatedOK)
		log.WithField("user_id", u.ID).Info("federated login")

		dest := "/"
		if u.IsAdmin() {
			dest = "/dashboard"
		}
		c.Redirect(http.StatusFound, h.Cfg.FrontendPath(dest))
	}
}
