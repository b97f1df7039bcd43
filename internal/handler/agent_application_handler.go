package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/service"
	"github.com/gharsewa/estate_api/internal/utils"
)

// maxDocumentSize caps uploaded application documents at 10 MB.
const maxDocumentSize = 10 << 20

// AgentApplicationHandler handles agent application endpoints, both the
// applicant-facing submission side and the admin review side.
type AgentApplicationHandler struct {
	appService *service.AgentApplicationService
	s3Service  *service.S3Service
}

// NewAgentApplicationHandler creates a new AgentApplicationHandler.
func NewAgentApplicationHandler(appService *service.AgentApplicationService, s3Service *service.S3Service) *AgentApplicationHandler {
	return &AgentApplicationHandler{appService: appService, s3Service: s3Service}
}

// Submit handles POST /v1/applications
func (h *AgentApplicationHandler) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	app, err := h.appService.Submit(c.GetInt("user_id"), &req)
	if err != nil {
		var vErr *utils.ValidationError
		switch {
		case errors.Is(err, utils.ErrInvalidRole):
			utils.Error(c, 403, "FORBIDDEN", "Only agent accounts can submit applications")
		case errors.Is(err, utils.ErrApplicationExists):
			utils.Error(c, 409, "APPLICATION_EXISTS", "An application already exists for this account")
		case errors.As(err, &vErr):
			utils.Error(c, 400, "VALIDATION_ERROR", vErr.Error())
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to submit application")
		}
		return
	}

	utils.Success(c, 201, "Application submitted", app)
}

// UploadDocument handles POST /v1/applications/documents/:kind
// Stores a raw document upload and returns its URL for use in the
// subsequent submission.
func (h *AgentApplicationHandler) UploadDocument(c *gin.Context) {
	kind := c.Param("kind")

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxDocumentSize+1))
	if err != nil || len(data) == 0 {
		utils.Error(c, 400, "INVALID_REQUEST", "Missing document body")
		return
	}
	if len(data) > maxDocumentSize {
		utils.Error(c, 413, "DOCUMENT_TOO_LARGE", "Document exceeds the 10MB limit")
		return
	}

	applicantID := c.GetInt("user_id")
	ctx := c.Request.Context()

	var url string
	switch kind {
	case "license":
		url, err = h.s3Service.UploadLicenseDocument(ctx, applicantID, data)
	case "id":
		url, err = h.s3Service.UploadIDDocument(ctx, applicantID, data)
	case "business":
		url, err = h.s3Service.UploadBusinessRegistration(ctx, applicantID, data)
	default:
		utils.Error(c, 400, "INVALID_DOCUMENT_KIND", "Document kind must be license, id or business")
		return
	}
	if err != nil {
		utils.Error(c, 502, "UPLOAD_FAILED", "Failed to store document")
		return
	}

	utils.Success(c, 201, "Document stored", gin.H{"url": url})
}

// GetMine handles GET /v1/applications/me
func (h *AgentApplicationHandler) GetMine(c *gin.Context) {
	app, err := h.appService.GetByApplicant(c.GetInt("user_id"))
	if err != nil {
		if errors.Is(err, utils.ErrApplicationNotFound) {
			utils.Error(c, 404, "APPLICATION_NOT_FOUND", "No application found for this account")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve application")
		return
	}

	utils.Success(c, 200, "Application retrieved", app)
}

// List handles GET /v1/admin/applications?status=&page=&limit=
func (h *AgentApplicationHandler) List(c *gin.Context) {
	status := models.ApplicationStatus(c.Query("status"))
	if status != "" && !status.Valid() {
		utils.Error(c, 400, "INVALID_STATUS", "Unknown application status")
		return
	}

	page, limit := paginationParams(c)
	apps, total, err := h.appService.List(status, limit, (page-1)*limit)
	if err != nil {
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve applications")
		return
	}

	utils.SuccessWithPagination(c, 200, "Applications retrieved", apps, page, limit, total)
}

// Get handles GET /v1/admin/applications/:id
func (h *AgentApplicationHandler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid application id")
		return
	}

	app, err := h.appService.Get(id)
	if err != nil {
		if errors.Is(err, utils.ErrApplicationNotFound) {
			utils.Error(c, 404, "APPLICATION_NOT_FOUND", "Application not found")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to retrieve application")
		return
	}

	utils.Success(c, 200, "Application retrieved", app)
}

// Review handles POST /v1/admin/applications/:id/review
func (h *AgentApplicationHandler) Review(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid application id")
		return
	}

	var req struct {
		Decision string `json:"decision" binding:"required"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.appService.Review(
		id, models.ReviewDecision(req.Decision), c.GetInt("user_id"),
		req.Notes, c.ClientIP(), c.Request.UserAgent(),
	)
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidDecision):
			utils.Error(c, 400, "INVALID_DECISION", "Decision must be under_review, approve, reject or needs_info")
		case errors.Is(err, utils.ErrApplicationNotFound):
			utils.Error(c, 404, "APPLICATION_NOT_FOUND", "Application not found")
		default:
			utils.Error(c, 500, "INTERNAL_ERROR", "Failed to review application")
		}
		return
	}

	if result.Affected == 0 {
		utils.Error(c, 409, "NOT_ELIGIBLE", "Application is not in a state eligible for this decision")
		return
	}

	utils.Success(c, 200, "Application reviewed", result)
}

// BulkReview handles POST /v1/admin/applications/bulk-review
func (h *AgentApplicationHandler) BulkReview(c *gin.Context) {
	var req struct {
		IDs      []int  `json:"ids" binding:"required"`
		Decision string `json:"decision" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "Invalid request body")
		return
	}

	result, err := h.appService.BulkReview(
		req.IDs, models.ReviewDecision(req.Decision), c.GetInt("user_id"),
		c.ClientIP(), c.Request.UserAgent(),
	)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidDecision) {
			utils.Error(c, 400, "INVALID_DECISION", "Decision must be under_review, approve, reject or needs_info")
			return
		}
		utils.Error(c, 500, "INTERNAL_ERROR", "Failed to review applications")
		return
	}

	utils.Success(c, 200, "Bulk review completed", result)
}

// paginationParams parses page/limit query parameters with defaults.
func paginationParams(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}
