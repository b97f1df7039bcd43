package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/sse"
	"github.com/gharsewa/estate_api/internal/utils"
)

// StatsHandler serves the admin dashboard summary.
type StatsHandler struct {
	userRepo    *repository.UserRepository
	appRepo     *repository.AgentApplicationRepository
	requestRepo *repository.PermissionRequestRepository
	logRepo     *repository.ActivityLogRepository
	hub         *sse.Hub
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(
	userRepo *repository.UserRepository,
	appRepo *repository.AgentApplicationRepository,
	requestRepo *repository.PermissionRequestRepository,
	logRepo *repository.ActivityLogRepository,
	hub *sse.Hub,
) *StatsHandler {
	return &StatsHandler{
		userRepo:    userRepo,
		appRepo:     appRepo,
		requestRepo: requestRepo,
		logRepo:     logRepo,
		hub:         hub,
	}
}

// GetStats handles GET /v1/admin/stats
func (h *StatsHandler) GetStats(c *gin.Context) {
	roleCounts, err := h.userRepo.CountByRole()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to compute dashboard stats")
		return
	}

	pendingApps, err := h.appRepo.Count(models.ApplicationPending)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to compute dashboard stats")
		return
	}
	underReview, err := h.appRepo.Count(models.ApplicationUnderReview)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to compute dashboard stats")
		return
	}

	pendingRequests, err := h.requestRepo.CountPending()
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to compute dashboard stats")
		return
	}

	highRisk, err := h.logRepo.CountHighRiskSince(time.Now().AddDate(0, 0, -30))
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to compute dashboard stats")
		return
	}

	utils.Success(c, 200, "Dashboard stats retrieved", gin.H{
		"usersByRole": roleCounts,
		"applications": gin.H{
			"pending":     pendingApps,
			"underReview": underReview,
		},
		"pendingPermissionRequests": pendingRequests,
		"recentHighRiskActions":     highRisk,
		"connectedDashboards":       h.hub.ClientCount(),
	})
}
