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

// AdminModule serves /api/admin/users; every route requires the admin role.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Gate    *application.Gate
	Cookies *helpers.Manager
	RDB     redis.UniversalClient
	Logger  *logrus.Logger
}

func NewAdminModule(h *handlers.AdminHandler, gate *application.Gate, cookies *helpers.Manager, rdb redis.UniversalClient, logger *logrus.Logger) *AdminModule {
	return &AdminModule{Handler: h, Gate: gate, Cookies: cookies, RDB: rdb, Logger: logger}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin/users")
	admin.Use(
		middleware.RequireAuth(m.Gate, m.Cookies, m.Logger),
		middleware.RequireAdmin(m.Gate),
		middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByUserID(), nil),
	)
	{
		admin.GET("/search", m.Handler.Search)
		admin.GET("/:id", m.Handler.Get)
		admin.PATCH("/:id/role", m.Handler.SetRole)
		admin.POST("/:id/verify", m.Handler.Verify)
		admin.DELETE("/:id", m.Handler.Delete)
	}
}
