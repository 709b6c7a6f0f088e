package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/internal/interface/middleware"
	"github.com/eohue/ibookee-web-sub000/pkg/response"
	"github.com/eohue/ibookee-web-sub000/pkg/validation"
)

// AdminHandler exposes the administrative user actions. Every route sits
// behind RequireAuth + RequireAdmin.
type AdminHandler struct {
	Users  *application.UserAdmin
	Logger *logrus.Logger
}

func NewAdminHandler(users *application.UserAdmin, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Users: users, Logger: logger}
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required,role"`
}

type verifyRequest struct {
	RealName    string `json:"realName" binding:"required"`
	PhoneNumber string `json:"phoneNumber" binding:"omitempty,phone"`
}

func actorID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}

func (h *AdminHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	hits, err := h.Users.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		h.Logger.WithError(err).WithField("request_id", c.GetString("request_id")).Warn("user search failed")
		response.Fail(c, http.StatusServiceUnavailable, "search unavailable", nil)
		return
	}
	resp := response.Success(c, http.StatusOK, hits, "ok", map[string]any{"count": len(hits)})
	c.JSON(resp.Status, resp)
}

func (h *AdminHandler) Get(c *gin.Context) {
	u, err := h.Users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, presentUser(u), "ok")
}

func (h *AdminHandler) SetRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Users.SetRole(c.Request.Context(), actorID(c), c.Param("id"), entity.Role(req.Role))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, presentUser(u), "role updated")
}

func (h *AdminHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Users.Verify(c.Request.Context(), actorID(c), c.Param("id"), req.RealName, req.PhoneNumber)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK(c, http.StatusOK, presentUser(u), "user verified")
}

// Delete removes the user and every session it holds.
func (h *AdminHandler) Delete(c *gin.Context) {
	if err := h.Users.Delete(c.Request.Context(), actorID(c), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK[any](c, http.StatusOK, nil, "user deleted")
}
