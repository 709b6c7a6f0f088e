package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
	"github.com/eohue/ibookee-web-sub000/pkg/response"
)

const (
	CtxUserKey   = "currentUser"
	CtxUserIDKey = "userID"
)

// RequireAuth resolves the session cookie to the current user through the
// gate. The user is re-read for every request and stored in the Gin context
// for this request only.
//
// Unknown, expired or orphaned sessions answer 401. A gate failure answers
// 500; it never lets the request through.
func RequireAuth(gate *application.Gate, cookies *helpers.Manager, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := gate.Authenticate(c.Request.Context(), cookies.Session(c))
		if errors.Is(err, application.ErrUnauthorized) {
			CountAuth(OutcomeUnauthorized)
			response.Abort(c, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		if err != nil {
			CountAuth(OutcomeGateError)
			logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("session check failed")
			response.Abort(c, http.StatusInternalServerError, "internal server error", nil)
			return
		}
		c.Set(CtxUserKey, u)
		c.Set(CtxUserIDKey, u.ID)
		c.Next()
	}
}

// RequireAdmin must follow RequireAuth in the same chain.
func RequireAdmin(gate *application.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, _ := CurrentUser(c)
		switch err := gate.Authorize(u); {
		case err == nil:
			c.Next()
		case errors.Is(err, application.ErrForbidden):
			CountAuth(OutcomeForbidden)
			response.Abort(c, http.StatusForbidden, "forbidden", nil)
		default:
			CountAuth(OutcomeUnauthorized)
			response.Abort(c, http.StatusUnauthorized, "unauthorized", nil)
		}
	}
}

// CurrentUser returns the user set by RequireAuth.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok && u != nil
}
