package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/service"
	"github.com/gharsewa/estate_api/internal/utils"
)

// PermissionRequestHandler handles the admin permission request workflow.
type PermissionRequestHandler struct {
	permService *service.PermissionService
}

// NewPermissionRequestHandler creates a new PermissionRequestHandler.
func NewPermissionRequestHandler(permService *service.PermissionService) *PermissionRequestHandler {
	return &PermissionRequestHandler{permService: permService}
}

// Submit handles POST /v1/admin/permission-requests
func (h *PermissionRequestHandler) Submit(c *gin.Context) {
	var req struct {
		Permission    string `json:"permission" binding:"required"`
		Reason        string `json:"reason" binding:"required"`
		Justification string `json:"justification" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	pr, err := h.permService.Submit(&service.RequestParams{
		AdminID:       c.GetInt("user_id"),
		Permission:    models.Permission(req.Permission),
		Reason:        req.Reason,
		Justification: req.Justification,
	})
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidPermission):
			utils.Error(c, 400, "INVALID_PERMISSION", "Permission is unknown or not requestable")
		case errors.Is(err, utils.ErrAlreadyGranted):
			utils.Error(c, 409, "ALREADY_GRANTED", "You already hold this permission")
		case errors.Is(err, utils.ErrAlreadyPending):
			utils.Error(c, 409, "ALREADY_PENDING", "A pending request for this permission already exists")
		case errors.Is(err, utils.ErrInvalidRole):
			utils.Error(c, 403, "FORBIDDEN", "Only limited admins can request permissions")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to submit permission request")
		}
		return
	}

	utils.Success(c, 201, "Permission request submitted", pr)
}

// Available handles GET /v1/admin/permission-requests/available
func (h *PermissionRequestHandler) Available(c *gin.Context) {
	perms, err := h.permService.AvailablePermissions(c.GetInt("user_id"))
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list available permissions")
		return
	}

	utils.Success(c, 200, "Available permissions retrieved", perms)
}

// ListPending handles GET /v1/admin/permission-requests/pending
func (h *PermissionRequestHandler) ListPending(c *gin.Context) {
	reqs, err := h.permService.ListPending()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list pending requests")
		return
	}

	utils.Success(c, 200, "Pending requests retrieved", reqs)
}

// ListResolved handles GET /v1/admin/permission-requests/resolved
func (h *PermissionRequestHandler) ListResolved(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	reqs, err := h.permService.ListRecentResolved(limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to list resolved requests")
		return
	}

	utils.Success(c, 200, "Resolved requests retrieved", reqs)
}

// Approve handles POST /v1/admin/permission-requests/:id/approve
func (h *PermissionRequestHandler) Approve(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request id")
		return
	}

	pr, err := h.permService.Approve(id, c.GetInt("user_id"), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.resolveError(c, err)
		return
	}

	utils.Success(c, 200, "Permission request approved", pr)
}

// Reject handles POST /v1/admin/permission-requests/:id/reject
func (h *PermissionRequestHandler) Reject(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request id")
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	pr, err := h.permService.Reject(id, c.GetInt("user_id"), req.Notes, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.resolveError(c, err)
		return
	}

	utils.Success(c, 200, "Permission request rejected", pr)
}

func (h *PermissionRequestHandler) resolveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrRequestNotFound):
		utils.Error(c, 404, "REQUEST_NOT_FOUND", "Permission request not found")
	case errors.Is(err, utils.ErrNotPending):
		utils.Error(c, 409, "NOT_PENDING", "Permission request is already resolved")
	default:
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to resolve permission request")
	}
}
