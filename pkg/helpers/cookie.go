package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const StateCookieName = "oauth_state"

// Manager writes the auth cookies. Every cookie is HttpOnly and SameSite=Lax
// so it survives the top-level redirect back from an identity provider.
type Manager struct {
	Domain      string
	Secure      bool
	SessionName string
}

func NewCookie(domain string, secure bool, sessionName string) *Manager {
	if sessionName == "" {
		sessionName = "sid"
	}
	return &Manager{Domain: domain, Secure: secure, SessionName: sessionName}
}

func (m *Manager) SetSession(c *gin.Context, sessionID string, exp time.Time) {
	m.set(c, m.SessionName, sessionID, maxAgeFrom(exp), "/")
}

// Session returns the session id sent by the client, or "".
func (m *Manager) Session(c *gin.Context) string {
	v, err := c.Cookie(m.SessionName)
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) ClearSession(c *gin.Context) {
	m.set(c, m.SessionName, "", -1, "/")
}

// SetState scopes the state cookie to the OAuth routes.
func (m *Manager) SetState(c *gin.Context, state string, ttl time.Duration) {
	m.set(c, StateCookieName, state, int(ttl.Seconds()), "/api/auth")
}

func (m *Manager) State(c *gin.Context) string {
	v, err := c.Cookie(StateCookieName)
	if err != nil {
		return ""
	}
	return v
}

func (m *Manager) ClearState(c *gin.Context) {
	m.set(c, StateCookieName, "", -1, "/api/auth")
}

func (m *Manager) set(c *gin.Context, name, value string, maxAge int, path string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, path, m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Round(time.Second) / time.Second)
	if sec < 0 {
		return 0
	}
	return sec
}
