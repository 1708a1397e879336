// Package handler wires HTTP endpoints to services.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/passport/ctxutil"
	"github.com/ncobase/passport/ecode"
	"github.com/ncobase/passport/resp"
	"github.com/ncobase/passport/service"
	"github.com/ncobase/passport/structs"
	"github.com/ncobase/passport/validation/validator"
)

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func bindAndValidate(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		resp.Fail(c.Writer, c.Request, resp.BadRequest("Malformed request body"))
		return false
	}
	if fields := validator.ValidateStruct(req); fields != nil {
		resp.Fail(c.Writer, c.Request, &resp.Exception{
			Code:    ecode.RequestErr,
			Message: "Validation failed",
			Errors:  fields,
		})
		return false
	}
	return true
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req structs.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	result, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Login successful", result)
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req structs.RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.WithStatusCode(c.Writer, c.Request, http.StatusCreated, "User registered successfully", user)
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req structs.TokenRefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		resp.Error(c.Writer, c.Request, err)
		return
	}
	resp.Success(c.Writer, c.Request, "Token refreshed successfully", result)
}

// Logout handles POST /auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	identity := ctxutil.GetIdentity(c)
	h.auth.Logout(c.Request.Context(), identity.User)
	resp.Success(c.Writer, c.Request, "Logged out successfully")
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	identity := ctxutil.GetIdentity(c)
	if !identity.Authenticated() {
		resp.Fail(c.Writer, c.Request, resp.UnAuthorized(ecode.Text(ecode.Unauthorized)))
		return
	}
	resp.Success(c.Writer, c.Request, "Current user", identity.User.View())
}
