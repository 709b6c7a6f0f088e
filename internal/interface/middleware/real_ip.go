package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
)

// RealIP sets the real client IP into Gin context (key: "real_ip").
// Priority:
// 1) CF-Connecting-IP (Cloudflare)
// 2) X-Forwarded-For (left-most)
// 3) fallback to c.ClientIP()
//
// It also attaches helpers.ClientInfo to the request context, so it must run
// after RequestIDMiddleware.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := realIP(c)
		c.Set("real_ip", ip)
		c.Request = c.Request.WithContext(helpers.WithClientInfo(c.Request.Context(), helpers.ClientInfo{
			IP:        ip,
			UserAgent: c.Request.UserAgent(),
			RequestID: c.GetString("request_id"),
		}))
		c.Next()
	}
}

func realIP(c *gin.Context) string {
	if cf := strings.TrimSpace(c.GetHeader("CF-Connecting-IP")); cf != "" {
		if ip := net.ParseIP(cf); ip != nil {
			return ip.String()
		}
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	return c.ClientIP()
}
