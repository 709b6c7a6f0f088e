package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/eohue/ibookee-web-sub000/internal/interface/middleware"
)

type DebugModule struct {
	RDB redis.UniversalClient
}

func NewDebugModule(rdb redis.UniversalClient) *DebugModule { return &DebugModule{RDB: rdb} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// expvar (auth outcome counters included), rate-limited per IP unless scraped from a private network
	rl := middleware.RateLimit(m.RDB, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}
