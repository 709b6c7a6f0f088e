package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
	"github.com/eohue/ibookee-web-sub000/pkg/response"
)

// writeError maps application errors to an error envelope. Anything it does
// not recognise is logged and answered with a generic 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *application.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Fail(c, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, application.ErrDuplicateAccount):
		response.Fail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, "invalid credentials", nil)
	case errors.Is(err, application.ErrInvalidRole):
		response.Fail(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, application.ErrUnauthorized):
		response.Fail(c, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, application.ErrForbidden):
		response.Fail(c, http.StatusForbidden, "forbidden", nil)
	default:
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"route":      c.FullPath(),
		})
		response.Fail(c, http.StatusInternalServerError, "internal server error", nil)
	}
}
