package router

import (
	"github.com/eohue/ibookee-web-sub000/internal/container"
	handlers "github.com/eohue/ibookee-web-sub000/internal/interface/http"
	"github.com/eohue/ibookee-web-sub000/internal/router/modules"
)

// InitModules builds the feature modules from c and registers them with r.
// It should be called once during application startup.
func InitModules(r *Registry, c *container.Container) {
	authHandler := handlers.NewAuthHandler(c.Auth, c.Cookies, c.Logger)
	oauthHandler := handlers.NewOAuthHandler(c.Auth, c.State, c.Cookies, c.Config, c.Logger)
	adminHandler := handlers.NewAdminHandler(c.Admin, c.Logger)

	r.Add(modules.NewAuthModule(authHandler, oauthHandler, c.Auth, c.Cookies, c.Redis, c.Logger))
	r.Add(modules.NewAdminModule(adminHandler, c.Auth.Gate, c.Cookies, c.Redis, c.Logger))
	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(c.Redis))
	}
}
