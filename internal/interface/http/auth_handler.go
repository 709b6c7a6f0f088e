package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/eohue/ibookee-web-sub000/internal/application"
	"github.com/eohue/ibookee-web-sub000/internal/domain/entity"
	"github.com/eohue/ibookee-web-sub000/internal/interface/middleware"
	"github.com/eohue/ibookee-web-sub000/pkg/helpers"
	"github.com/eohue/ibookee-web-sub000/pkg/response"
	"github.com/eohue/ibookee-web-sub000/pkg/validation"
)

// AuthHandler serves the local strategy and the session endpoints.
type AuthHandler struct {
	Auth    *application.AuthConfig
	Cookies *helpers.Manager
	Logger  *logrus.Logger
}

func NewAuthHandler(auth *application.AuthConfig, cookies *helpers.Manager, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Auth: auth, Cookies: cookies, Logger: logger}
}

// Blank fields are not a binding error: they fail as invalid credentials.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	RealName string `json:"realName" binding:"required"`
	Nickname string `json:"nickname" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// Login authenticates with email + password and starts a session.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Auth.Local.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		middleware.CountAuth(middleware.OutcomeLoginRejected)
		writeError(c, h.Logger, err)
		return
	}
	if !h.startSession(c, u) {
		return
	}
	middleware.CountAuth(middleware.OutcomeLoginOK)
	response.OK(c, http.StatusOK, presentUser(u), "login successful")
}

// Register creates a local account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Auth.Local.Register(c.Request.Context(), application.RegisterInput{
		Email:    req.Username,
		Password: req.Password,
		RealName: req.RealName,
		Nickname: req.Nickname,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	if !h.startSession(c, u) {
		return
	}
	middleware.CountAuth(middleware.OutcomeRegistered)
	response.OK(c, http.StatusCreated, presentUser(u), "registered")
}

// Logout destroys the session server side and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := h.Cookies.Session(c)
	h.Cookies.ClearSession(c)
	if err := h.Auth.Gate.EndSession(c.Request.Context(), sid); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusOK)
}

// Me returns the user resolved by RequireAuth for this request.
func (h *AuthHandler) Me(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	response.OK(c, http.StatusOK, presentUser(u), "ok")
}

// ChangePassword replaces the password of the current user, or attaches a
// first one to a federated-only account.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Auth.Local.ChangePassword(c.Request.Context(), u.ID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.OK[any](c, http.StatusOK, nil, "password updated")
}

// Strategies lists the active sign-in strategies, local first.
func (h *AuthHandler) Strategies(c *gin.Context) {
	response.OK(c, http.StatusOK, h.Auth.Strategies(), "ok")
}

func (h *AuthHandler) startSession(c *gin.Context, u *entity.User) bool {
	s, err := h.Auth.Gate.StartSession(c.Request.Context(), u)
	if err != nil {
		writeError(c, h.Logger, err)
		return false
	}
	h.Cookies.SetSession(c, s.ID, s.ExpiresAt)
	return true
}
