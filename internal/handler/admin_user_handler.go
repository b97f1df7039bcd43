package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gharsewa/estate_api/internal/service"
	"github.com/gharsewa/estate_api/internal/utils"
)

// AdminUserHandler handles account moderation endpoints.
type AdminUserHandler struct {
	userAdminService *service.UserAdminService
}

// NewAdminUserHandler creates a new AdminUserHandler.
func NewAdminUserHandler(userAdminService *service.UserAdminService) *AdminUserHandler {
	return &AdminUserHandler{userAdminService: userAdminService}
}

// Get handles GET /v1/admin/users/:id
func (h *AdminUserHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid user id")
		return
	}

	user, err := h.userAdminService.Get(id)
	if err != nil {
		if errors.Is(err, utils.ErrUserNotFound) {
			utils.Error(c, 404, "USER_NOT_FOUND", "Account not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve account")
		return
	}

	utils.Success(c, 200, "Account retrieved", user)
}

// Ban handles POST /v1/admin/users/:id/ban
func (h *AdminUserHandler) Ban(c *gin.Context) {
	h.moderate(c, h.userAdminService.Ban, "Account banned")
}

// Unban handles POST /v1/admin/users/:id/unban
func (h *AdminUserHandler) Unban(c *gin.Context) {
	h.moderate(c, h.userAdminService.Unban, "Account reinstated")
}

// Verify handles POST /v1/admin/users/:id/verify
func (h *AdminUserHandler) Verify(c *gin.Context) {
	h.moderate(c, h.userAdminService.Verify, "Account verified")
}

func (h *AdminUserHandler) moderate(c *gin.Context, action func(id, actorID int, ip, userAgent string) error, message string) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid user id")
		return
	}

	if err := action(id, c.GetInt("user_id"), c.ClientIP(), c.Request.UserAgent()); err != nil {
		if errors.Is(err, utils.ErrUserNotFound) {
			utils.Error(c, 404, "USER_NOT_FOUND", "Account not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update account")
		return
	}

	utils.Success(c, 200, message, nil)
}

// BulkBan handles POST /v1/admin/users/bulk-ban
func (h *AdminUserHandler) BulkBan(c *gin.Context) {
	h.bulk(c, h.userAdminService.BulkBan, "Bulk ban completed")
}

// BulkVerify handles POST /v1/admin/users/bulk-verify
func (h *AdminUserHandler) BulkVerify(c *gin.Context) {
	h.bulk(c, h.userAdminService.BulkVerify, "Bulk verify completed")
}

func (h *AdminUserHandler) bulk(c *gin.Context, action func(ids []int, actorID int, ip, userAgent string) (int64, error), message string) {
	var req struct {
		IDs []int `json:"ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	affected, err := action(req.IDs, c.GetInt("user_id"), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to update accounts")
		return
	}

	utils.Success(c, 200, message, gin.H{"affected": affected})
}
