package service

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/utils"
)

// PermissionService runs the admin permission request workflow: limited
// admins ask for individual permission bits, super admins grant or deny.
type PermissionService struct {
	requestRepo *repository.PermissionRequestRepository
	userRepo    *repository.UserRepository
	activitySvc *ActivityService
	notifySvc   *NotificationService
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(
	requestRepo *repository.PermissionRequestRepository,
	userRepo *repository.UserRepository,
	activitySvc *ActivityService,
	notifySvc *NotificationService,
) *PermissionService {
	return &PermissionService{
		requestRepo: requestRepo,
		userRepo:    userRepo,
		activitySvc: activitySvc,
		notifySvc:   notifySvc,
	}
}

// RequestParams carries one permission ask.
type RequestParams struct {
	AdminID       int
	Permission    models.Permission
	Reason        string
	Justification string
}

// Submit files a permission request for a limited admin. Super admins and
// admins who already hold the bit are turned away, as is a second pending
// request for the same permission.
func (s *PermissionService) Submit(p *RequestParams) (*models.PermissionRequest, error) {
	if !p.Permission.Requestable() {
		return nil, utils.ErrInvalidPermission
	}

	admin, err := s.userRepo.GetByID(p.AdminID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	if admin.Role == models.RoleSuperAdmin || admin.AdminPermissions.Has(p.Permission) {
		return nil, utils.ErrAlreadyGranted
	}
	if admin.Role != models.RoleAdmin {
		return nil, utils.ErrInvalidRole
	}

	pending, err := s.requestRepo.HasPending(p.AdminID, p.Permission)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, utils.ErrAlreadyPending
	}

	req := &models.PermissionRequest{
		RequestingAdminID: p.AdminID,
		PermissionType:    p.Permission,
		Reason:            p.Reason,
		Justification:     p.Justification,
	}
	if err := s.requestRepo.Create(req); err != nil {
		// Lost the race against a concurrent submit for the same bit.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, utils.ErrAlreadyPending
		}
		return nil, err
	}

	log.Info().
		Int("request_id", req.ID).
		Int("admin_id", p.AdminID).
		Str("permission", string(p.Permission)).
		Msg("Permission request submitted")
	return req, nil
}

// Approve grants the requested permission bit. The request resolution and
// the permission merge commit atomically; resolving an already-resolved
// request returns ErrNotPending. The grant is always audited as high risk
// and the requester is told to start a new session to pick it up.
func (s *PermissionService) Approve(id, reviewerID int, ip, userAgent string) (*models.PermissionRequest, error) {
	req, err := s.requestRepo.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrRequestNotFound
		}
		return nil, err
	}

	affected, err := s.requestRepo.Approve(id, reviewerID)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, utils.ErrNotPending
	}

	targetModel := "PermissionRequest"
	s.activitySvc.record(&RecordParams{
		ActorID:     reviewerID,
		ActionType:  models.ActionPermission,
		Description: fmt.Sprintf("Granted %s to admin #%d", req.PermissionType, req.RequestingAdminID),
		TargetModel: &targetModel,
		TargetID:    &req.ID,
		IPAddress:   ip,
		UserAgent:   userAgent,
	})

	s.notifySvc.Notify(&models.AdminNotification{
		Title:          "Permission request approved",
		Message:        fmt.Sprintf("Your request for %s was approved. Log out and log in again to use it.", req.PermissionType),
		Type:           models.NotificationPermissionRequest,
		Priority:       models.PriorityHigh,
		RelatedAdminID: req.RequestingAdminID,
	})

	log.Info().
		Int("request_id", id).
		Int("admin_id", req.RequestingAdminID).
		Str("permission", string(req.PermissionType)).
		Msg("Permission request approved")
	return s.requestRepo.GetByID(id)
}

// Reject denies a pending request with optional notes. No permission set is
// touched; the requester may file again later.
func (s *PermissionService) Reject(id, reviewerID int, notes, ip, userAgent string) (*models.PermissionRequest, error) {
	req, err := s.requestRepo.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrRequestNotFound
		}
		return nil, err
	}

	affected, err := s.requestRepo.Reject(id, reviewerID, notes)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, utils.ErrNotPending
	}

	targetModel := "PermissionRequest"
	s.activitySvc.record(&RecordParams{
		ActorID:     reviewerID,
		ActionType:  models.ActionUpdate,
		Description: fmt.Sprintf("Denied %s for admin #%d", req.PermissionType, req.RequestingAdminID),
		TargetModel: &targetModel,
		TargetID:    &req.ID,
		IPAddress:   ip,
		UserAgent:   userAgent,
	})

	s.notifySvc.Notify(&models.AdminNotification{
		Title:          "Permission request denied",
		Message:        fmt.Sprintf("Your request for %s was denied.", req.PermissionType),
		Type:           models.NotificationPermissionRequest,
		Priority:       models.PriorityMedium,
		RelatedAdminID: req.RequestingAdminID,
	})

	log.Info().
		Int("request_id", id).
		Int("admin_id", req.RequestingAdminID).
		Str("permission", string(req.PermissionType)).
		Msg("Permission request rejected")
	return s.requestRepo.GetByID(id)
}

// ListPending returns all open requests for the super admin queue.
func (s *PermissionService) ListPending() ([]*models.PermissionRequest, error) {
	return s.requestRepo.ListPending()
}

// ListRecentResolved returns recently decided requests.
func (s *PermissionService) ListRecentResolved(limit int) ([]*models.PermissionRequest, error) {
	return s.requestRepo.ListRecentResolved(limit)
}

// AvailablePermissions returns the permission bits an admin can still ask
// for: requestable, not already held, no pending request.
func (s *PermissionService) AvailablePermissions(adminID int) ([]models.Permission, error) {
	admin, err := s.userRepo.GetByID(adminID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}

	available := []models.Permission{}
	for _, p := range models.AllPermissions {
		if !p.Requestable() || admin.AdminPermissions.Has(p) {
			continue
		}
		pending, err := s.requestRepo.HasPending(adminID, p)
		if err != nil {
			return nil, err
		}
		if !pending {
			available = append(available, p)
		}
	}
	return available, nil
}
