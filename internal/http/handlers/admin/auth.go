package admin

import (
	handlershared "github.com/denver-kabob/internal/http/handlers/shared"
	"github.com/denver-kabob/internal/http/response"

	"github.com/gin-gonic/gin"
)

// LoginRequest carries the shared kitchen password
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login exchanges the shared password for a session token
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "Password is required", nil)
		return
	}

	token, expiresAt, err := h.AuthService.Login(req.Password)
	if err != nil {
		requestLog(c).Warnw("admin_login_failed", "client_ip", c.ClientIP(), "error", err)
		respondWithMappedError(c, err, loginErrorRules, response.CodeInternal, "Login failed")
		return
	}

	requestLog(c).Infow("admin_login_success", "client_ip", c.ClientIP())
	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
	})
}

// Logout revokes the presented token
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := handlershared.AdminClaims(c)
	if !ok {
		respondError(c, response.CodeUnauthorized, "Unauthorized", nil)
		return
	}
	if err := h.AuthService.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, response.CodeInternal, "Logout failed", err)
		return
	}
	response.SuccessWithMsg(c, "Logged out", nil)
}
