package handler

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/service"
	"github.com/gharsewa/estate_api/internal/utils"
)

// ActivityLogHandler exposes the admin audit trail.
type ActivityLogHandler struct {
	activityService *service.ActivityService
}

// NewActivityLogHandler creates a new ActivityLogHandler.
func NewActivityLogHandler(activityService *service.ActivityService) *ActivityLogHandler {
	return &ActivityLogHandler{activityService: activityService}
}

// List handles GET /v1/admin/activity-logs?actionType=&adminId=&highRisk=&page=&limit=
func (h *ActivityLogHandler) List(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}

	page, limit := paginationParams(c)
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	entries, total, err := h.activityService.List(filter)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve activity logs")
		return
	}

	utils.SuccessWithPagination(c, 200, "Activity logs retrieved", entries, page, limit, total)
}

// Export handles GET /v1/admin/activity-logs/export
// Streams the filtered audit trail as a CSV attachment.
func (h *ActivityLogHandler) Export(c *gin.Context) {
	filter, ok := h.parseFilter(c)
	if !ok {
		return
	}
	// exports are bounded but larger than a dashboard page
	filter.Limit = 10000

	data, err := h.activityService.ExportCSV(filter, c.GetInt("user_id"), c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to export activity logs")
		return
	}

	filename := fmt.Sprintf("activity-logs-%s.csv", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(200, "text/csv", data)
}

func (h *ActivityLogHandler) parseFilter(c *gin.Context) (*repository.LogFilter, bool) {
	filter := &repository.LogFilter{}

	if v := c.Query("actionType"); v != "" {
		at := models.ActionType(v)
		if !at.Valid() {
			utils.Error(c, 400, "INVALID_ACTION_TYPE", "Unknown action type")
			return nil, false
		}
		filter.ActionType = at
	}
	if v := c.Query("adminId"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			utils.Error(c, 400, "INVALID_REQUEST", "Invalid adminId")
			return nil, false
		}
		filter.AdminID = id
	}
	filter.HighRiskOnly = c.Query("highRisk") == "true"

	return filter, true
}
