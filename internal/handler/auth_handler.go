package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/gharsewa/estate_api/internal/middleware"
	"github.com/gharsewa/estate_api/internal/service"
	"github.com/gharsewa/estate_api/internal/utils"
)

// AuthHandler handles registration, login and session endpoints.
type AuthHandler struct {
	authService *service.AuthService
	limiter     *middleware.InvalidAuthRateLimiter
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, limiter *middleware.InvalidAuthRateLimiter) *AuthHandler {
	return &AuthHandler{authService: authService, limiter: limiter}
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidRole):
			utils.Error(c, 400, "INVALID_ROLE", "Role must be buyer, broker or agent")
		case errors.Is(err, utils.ErrUsernameTaken):
			utils.Error(c, 409, "USERNAME_TAKEN", "Username is already registered")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to register account")
		}
		return
	}

	utils.Success(c, 201, "Account registered", user)
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	ip := c.ClientIP()
	if h.limiter.Blocked(ip) {
		utils.Error(c, 429, "TOO_MANY_ATTEMPTS", "Too many failed attempts, try again later")
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Username, req.Password, ip)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidCredentials):
			h.limiter.Allow(ip)
			utils.Error(c, 401, "INVALID_CREDENTIALS", "Invalid username or password")
		case errors.Is(err, utils.ErrAdminInactive):
			utils.Error(c, 403, "ADMIN_INACTIVE", "Admin account is deactivated")
		case errors.Is(err, utils.ErrAccountInactive):
			utils.Error(c, 403, "ACCOUNT_INACTIVE", "Account is not active")
		case errors.Is(err, utils.ErrApplicationMissing):
			utils.Error(c, 403, "APPLICATION_MISSING", "Submit an agent application before logging in")
		case errors.Is(err, utils.ErrApplicationPending):
			utils.Error(c, 403, "APPLICATION_PENDING", "Agent application is still under review")
		case errors.Is(err, utils.ErrApplicationNeedsInfo):
			utils.Error(c, 403, "APPLICATION_NEEDS_INFO", "Agent application needs additional information")
		case errors.Is(err, utils.ErrApplicationRejected):
			utils.Error(c, 403, "APPLICATION_REJECTED", "Agent application was rejected")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to log in")
		}
		return
	}

	h.limiter.Reset(ip)
	utils.Success(c, 200, "Login successful", gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	userID := c.GetInt("user_id")
	username := c.GetString("username")
	role := c.GetString("role")

	if err := h.authService.Logout(c.Request.Context(), userID, username, role, c.ClientIP()); err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to log out")
		return
	}

	utils.Success(c, 200, "Logged out", nil)
}

// RefreshSession handles POST /v1/auth/session/refresh
// Rewrites the cached permission snapshot from storage, so freshly granted
// permissions apply without a full re-login.
func (h *AuthHandler) RefreshSession(c *gin.Context) {
	userID := c.GetInt("user_id")

	user, err := h.authService.RefreshSession(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrUserNotFound):
			utils.Error(c, 404, "USER_NOT_FOUND", "Account not found")
		case errors.Is(err, utils.ErrInvalidRole):
			utils.Error(c, 403, "FORBIDDEN", "Only admin sessions can be refreshed")
		case errors.Is(err, utils.ErrAdminInactive):
			utils.Error(c, 403, "ADMIN_INACTIVE", "Admin account is deactivated")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to refresh session")
		}
		return
	}

	utils.Success(c, 200, "Session refreshed", gin.H{
		"permissions": user.AdminPermissions,
	})
}
