package handler

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/service"
	"github.com/gharsewa/estate_api/internal/sse"
	"github.com/gharsewa/estate_api/internal/utils"
)

// NotificationHandler exposes the admin notification mailbox and its live
// SSE stream.
type NotificationHandler struct {
	notificationService *service.NotificationService
	hub                 *sse.Hub
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService, hub *sse.Hub) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, hub: hub}
}

// List handles GET /v1/admin/notifications?unread=true&limit=
func (h *NotificationHandler) List(c *gin.Context) {
	adminID := c.GetInt("user_id")
	unreadOnly := c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	notifications, err := h.notificationService.List(adminID, unreadOnly, limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve notifications")
		return
	}

	unread, err := h.notificationService.CountUnread(adminID)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to count notifications")
		return
	}

	utils.Success(c, 200, "Notifications retrieved", gin.H{
		"notifications": notifications,
		"unreadCount":   unread,
	})
}

// MarkRead handles POST /v1/admin/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid notification id")
		return
	}

	affected, err := h.notificationService.MarkRead(id, c.GetInt("user_id"))
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to mark notification read")
		return
	}
	if affected == 0 {
		utils.Error(c, 404, "NOTIFICATION_NOT_FOUND", "Notification not found")
		return
	}

	utils.Success(c, 200, "Notification marked read", nil)
}

// MarkAllRead handles POST /v1/admin/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	affected, err := h.notificationService.MarkAllRead(c.GetInt("user_id"))
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to mark notifications read")
		return
	}

	utils.Success(c, 200, "Notifications marked read", gin.H{"affected": affected})
}

// Stream handles GET /v1/admin/notifications/stream?token=<jwt>
// EventSource API cannot set custom headers, so JWT is passed via query param.
func (h *NotificationHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Error(c, 401, "UNAUTHORIZED", "Missing token query parameter")
		return
	}

	claims, err := utils.ValidateJWT(token)
	if err != nil {
		utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if !models.Role(claims.Role).IsAdminRole() {
		utils.Error(c, 403, "FORBIDDEN", "Admin access required")
		return
	}

	clientKey := fmt.Sprintf("admin-%d-%d", claims.UserID, time.Now().UnixNano())

	// SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.hub.Register(clientKey, claims.UserID)
	defer h.hub.Unregister(clientKey)

	c.SSEvent("connected", gin.H{
		"clientId":  clientKey,
		"message":   "SSE connection established",
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientKey).Int("admin_id", claims.UserID).Msg("Admin notification stream started")

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("notification", string(data))
			return true
		case <-time.After(30 * time.Second):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
