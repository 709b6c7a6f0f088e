package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/application"
	handlers "github.com/eohue/ibookee-web-sub000/internal/interface/http"
	"github.com/eohue/ibookee-web-sub000/internal/interface/middleware"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
)

// AuthModule wires the sign-in strategies and the session endpoints.
// Public: POST /api/login, POST /api/register, POST /api/logout,
// GET /api/auth/strategies, GET /api/auth/{provider}[/callback]
// Protected: GET /api/auth/user, PUT /api/auth/password
//
// Provider routes exist only for the strategies active in AuthConfig.
type AuthModule struct {
	Handler *handlers.AuthHandler
	OAuth   *handlers.OAuthHandler
	Auth    *application.AuthConfig
	Cookies *helpers.Manager
	RDB     redis.UniversalClient
	Logger  *logrus.Logger
}

func NewAuthModule(h *handlers.AuthHandler, o *handlers.OAuthHandler, auth *application.AuthConfig, cookies *helpers.Manager, rdb redis.UniversalClient, logger *logrus.Logger) *AuthModule {
	return &AuthModule{Handler: h, OAuth: o, Auth: auth, Cookies: cookies, RDB: rdb, Logger: logger}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(m.RDB, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	registerLimiter := middleware.RateLimit(m.RDB, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	callbackLimiter := middleware.RateLimit(m.RDB, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/logout", m.Handler.Logout)
	rg.GET("/auth/strategies", m.Handler.Strategies)

	for _, p := range m.Auth.Strategies() {
		if !p.IsFederated() {
			continue
		}
		rg.GET("/auth/"+string(p), m.OAuth.Begin(p))
		rg.GET("/auth/"+string(p)+"/callback", callbackLimiter, m.OAuth.Callback(p))
	}

	auth := rg.Group("/auth")
	auth.Use(
		middleware.RequireAuth(m.Auth.Gate, m.Cookies, m.Logger),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		auth.GET("/user", m.Handler.Me)
		auth.PUT("/password", m.Handler.ChangePassword)
	}
}
