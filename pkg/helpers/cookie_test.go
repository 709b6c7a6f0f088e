package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_SessionCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewCookie("example.com", true, "")
	assert.Equal(t, "sid", m.SessionName)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	m.SetSession(c, "abc", time.Now().Add(2*time.Hour))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	got := cookies[0]
	assert.Equal(t, "sid", got.Name)
	assert.Equal(t, "abc", got.Value)
	assert.Equal(t, 7200, got.MaxAge)
	assert.Equal(t, "/", got.Path)
	assert.True(t, got.HttpOnly)
	assert.True(t, got.Secure)
	assert.Equal(t, http.SameSiteLaxMode, got.SameSite)
}

func TestManager_StateCookieRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewCookie("", false, "sid")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	m.SetState(c, "st.ate-1", 10*time.Minute)
	set := w.Result().Cookies()[0]
	assert.Equal(t, StateCookieName, set.Name)
	assert.Equal(t, "/api/auth", set.Path)
	assert.Equal(t, 600, set.MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback", nil)
	req.AddCookie(set)
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	assert.Equal(t, "st.ate-1", m.State(c))
	assert.Empty(t, m.Session(c))
}
