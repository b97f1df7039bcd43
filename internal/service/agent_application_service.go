package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/utils"
)

// AgentApplicationService runs the agent vetting workflow: one submission
// per agent account, admin-driven review transitions, and the account
// cascade coupled to each decision.
type AgentApplicationService struct {
	appRepo     *repository.AgentApplicationRepository
	userRepo    *repository.UserRepository
	activitySvc *ActivityService
	notifySvc   *NotificationService
	identitySvc *IdentityService
}

// NewAgentApplicationService constructs an AgentApplicationService.
// identitySvc may be nil when the document check is disabled.
func NewAgentApplicationService(
	appRepo *repository.AgentApplicationRepository,
	userRepo *repository.UserRepository,
	activitySvc *ActivityService,
	notifySvc *NotificationService,
	identitySvc *IdentityService,
) *AgentApplicationService {
	return &AgentApplicationService{
		appRepo:     appRepo,
		userRepo:    userRepo,
		activitySvc: activitySvc,
		notifySvc:   notifySvc,
		identitySvc: identitySvc,
	}
}

// SubmitRequest carries the professional fields and document references for
// an agent application. The business registration document is the only
// optional piece.
type SubmitRequest struct {
	CompanyName             string  `json:"companyName" binding:"required"`
	LicenseNumber           string  `json:"licenseNumber" binding:"required"`
	LicenseExpiry           string  `json:"licenseExpiry" binding:"required"` // YYYY-MM-DD
	YearsExperience         int     `json:"yearsExperience"`
	Bio                     string  `json:"bio" binding:"required"`
	Specializations         string  `json:"specializations"`
	ContactPhone            string  `json:"contactPhone" binding:"required"`
	ContactEmail            string  `json:"contactEmail" binding:"required,email"`
	LicenseDocumentURL      string  `json:"licenseDocumentUrl" binding:"required"`
	IDDocumentURL           string  `json:"idDocumentUrl" binding:"required"`
	BusinessRegistrationURL *string `json:"businessRegistrationUrl"`
}

// Submit creates the application for an agent account. One application per
// account; submission is not re-editable afterwards.
func (s *AgentApplicationService) Submit(applicantID int, req *SubmitRequest) (*models.AgentApplication, error) {
	user, err := s.userRepo.GetByID(applicantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	if user.Role != models.RoleAgent {
		return nil, utils.ErrInvalidRole
	}

	if existing, _ := s.appRepo.GetByApplicantID(applicantID); existing != nil {
		return nil, utils.ErrApplicationExists
	}

	expiry, err := time.Parse("2006-01-02", req.LicenseExpiry)
	if err != nil {
		return nil, utils.NewValidationError("licenseExpiry", "must be a date in YYYY-MM-DD format")
	}
	if req.YearsExperience < 0 {
		return nil, utils.NewValidationError("yearsExperience", "must be zero or positive")
	}

	app := &models.AgentApplication{
		ApplicantID:             applicantID,
		CompanyName:             req.CompanyName,
		LicenseNumber:           req.LicenseNumber,
		LicenseExpiry:           expiry,
		YearsExperience:         req.YearsExperience,
		Bio:                     req.Bio,
		ContactPhone:            req.ContactPhone,
		ContactEmail:            req.ContactEmail,
		LicenseDocumentURL:      req.LicenseDocumentURL,
		IDDocumentURL:           req.IDDocumentURL,
		BusinessRegistrationURL: req.BusinessRegistrationURL,
	}
	if req.Specializations != "" {
		app.Specializations = &req.Specializations
	}

	if err := s.appRepo.Create(app); err != nil {
		return nil, err
	}

	if s.identitySvc != nil && s.identitySvc.Enabled() {
		go func(appID int) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			s.identitySvc.CheckApplicationDocuments(ctx, appID)
		}(app.ID)
	}

	s.notifyAdmins(
		"New agent application",
		fmt.Sprintf("%s (%s) submitted an agent application.", user.Username, req.CompanyName),
		models.PriorityMedium,
	)

	log.Info().Int("application_id", app.ID).Int("applicant_id", applicantID).Msg("Agent application submitted")
	return app, nil
}

// notifyAdmins fans one notification out to every active admin mailbox.
func (s *AgentApplicationService) notifyAdmins(title, message string, priority models.NotificationPriority) {
	adminIDs, err := s.userRepo.ListActiveAdminIDs()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list admins for notification")
		return
	}
	for _, adminID := range adminIDs {
		s.notifySvc.Notify(&models.AdminNotification{
			Title:          title,
			Message:        message,
			Type:           models.NotificationUser,
			Priority:       priority,
			RelatedAdminID: adminID,
		})
	}
}

// Get returns one application by id.
func (s *AgentApplicationService) Get(id int) (*models.AgentApplication, error) {
	app, err := s.appRepo.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

// GetByApplicant returns the application linked to an account.
func (s *AgentApplicationService) GetByApplicant(applicantID int) (*models.AgentApplication, error) {
	app, err := s.appRepo.GetByApplicantID(applicantID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

// List returns applications filtered by status plus the matching total.
func (s *AgentApplicationService) List(status models.ApplicationStatus, limit, offset int) ([]*models.AgentApplication, int, error) {
	apps, err := s.appRepo.List(status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.appRepo.Count(status)
	if err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

// ReviewResult reports how many applications a transition affected. Zero
// means the application was not in a state eligible for the decision; that
// is the observable no-op signal, not an error.
type ReviewResult struct {
	Affected int `json:"affected"`
}

// Review applies one decision to one application. Approval cascades the
// linked account to active+verified; rejection and needs_info force it
// inactive+unverified, even if previously verified. The cascade and the
// status change commit together or not at all.
func (s *AgentApplicationService) Review(id int, decision models.ReviewDecision, reviewerID int, notes, ip, userAgent string) (*ReviewResult, error) {
	if !decision.Valid() {
		return nil, utils.ErrInvalidDecision
	}

	app, err := s.appRepo.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrApplicationNotFound
		}
		return nil, err
	}

	affected, err := s.appRepo.Review(id, decision, reviewerID, notes)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return &ReviewResult{Affected: 0}, nil
	}

	s.auditReview(app, decision, reviewerID, ip, userAgent)

	log.Info().
		Int("application_id", id).
		Str("decision", string(decision)).
		Int("reviewer_id", reviewerID).
		Msg("Agent application reviewed")
	return &ReviewResult{Affected: affected}, nil
}

// BulkReview applies one decision to a set of applications, skipping any not
// in an eligible state, and returns how many actually transitioned.
func (s *AgentApplicationService) BulkReview(ids []int, decision models.ReviewDecision, reviewerID int, ip, userAgent string) (*ReviewResult, error) {
	if !decision.Valid() {
		return nil, utils.ErrInvalidDecision
	}
	if len(ids) == 0 {
		return &ReviewResult{Affected: 0}, nil
	}

	affected, err := s.appRepo.BulkReview(ids, decision, reviewerID, "")
	if err != nil {
		return nil, err
	}

	if affected > 0 {
		actionType := models.ActionApprove
		if decision == models.DecisionReject {
			actionType = models.ActionReject
		} else if decision != models.DecisionApprove {
			actionType = models.ActionUpdate
		}
		s.activitySvc.record(&RecordParams{
			ActorID:     reviewerID,
			ActionType:  actionType,
			Description: fmt.Sprintf("Bulk %s applied to %d agent applications", decision, affected),
			IPAddress:   ip,
			UserAgent:   userAgent,
		})
	}

	log.Info().
		Int("requested", len(ids)).
		Int("affected", affected).
		Str("decision", string(decision)).
		Msg("Bulk agent application review")
	return &ReviewResult{Affected: affected}, nil
}

func (s *AgentApplicationService) auditReview(app *models.AgentApplication, decision models.ReviewDecision, reviewerID int, ip, userAgent string) {
	targetModel := "AgentApplication"
	targetID := app.ID

	var actionType models.ActionType
	var description string
	switch decision {
	case models.DecisionApprove:
		actionType = models.ActionApprove
		description = fmt.Sprintf("Approved agent application #%d; applicant account activated", app.ID)
	case models.DecisionReject:
		actionType = models.ActionReject
		description = fmt.Sprintf("Rejected agent application #%d", app.ID)
	case models.DecisionNeedsInfo:
		actionType = models.ActionUpdate
		description = fmt.Sprintf("Requested more information for agent application #%d", app.ID)
	default:
		actionType = models.ActionUpdate
		description = fmt.Sprintf("Moved agent application #%d under review", app.ID)
	}

	s.activitySvc.record(&RecordParams{
		ActorID:     reviewerID,
		ActionType:  actionType,
		Description: description,
		TargetModel: &targetModel,
		TargetID:    &targetID,
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}
