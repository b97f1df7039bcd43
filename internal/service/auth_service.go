package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/gharsewa/estate_api/internal/cache"
	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/utils"
)

// AuthService handles registration, login gating and session state.
type AuthService struct {
	userRepo     *repository.UserRepository
	appRepo      *repository.AgentApplicationRepository
	sessionCache *cache.SessionCache
	activitySvc  *ActivityService
}

// NewAuthService constructs an AuthService.
func NewAuthService(
	userRepo *repository.UserRepository,
	appRepo *repository.AgentApplicationRepository,
	sessionCache *cache.SessionCache,
	activitySvc *ActivityService,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		appRepo:      appRepo,
		sessionCache: sessionCache,
		activitySvc:  activitySvc,
	}
}

// RegisterRequest represents a new account registration.
type RegisterRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role" binding:"required"`
}

// Register creates a new account. Buyers and brokers are activated and
// verified immediately. Agents are created locked (inactive, unverified) and
// must submit an agent application; their account stays locked until it is
// approved. Admin roles cannot self-register.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	role := models.Role(req.Role)
	if !role.Valid() || role.IsAdminRole() {
		return nil, utils.ErrInvalidRole
	}

	if existing, _ := s.userRepo.GetByUsername(req.Username); existing != nil {
		return nil, utils.ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = &req.PhoneNumber
	}

	if role == models.RoleAgent {
		// Held locked until the agent application is approved.
		user.IsActive = false
		user.IsVerified = false
	} else {
		now := time.Now()
		user.IsActive = true
		user.IsVerified = true
		user.VerificationDate = &now
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("Account registered")
	return user, nil
}

// Login verifies credentials and applies per-role gating before issuing a
// token. Agent accounts authenticate only with an approved application AND
// an active, verified account; each blocked state maps to a distinct error.
// On success the admin permission snapshot is captured into the session
// cache; it is not re-read until re-login or an explicit refresh.
func (s *AuthService) Login(ctx context.Context, username, password, ip string) (string, *models.User, error) {
	user, err := s.userRepo.GetByUsername(username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil, utils.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Warn().Str("username", username).Msg("Password verification failed")
		return "", nil, utils.ErrInvalidCredentials
	}

	switch {
	case user.Role.IsAdminRole():
		if !user.IsAdminActive {
			return "", nil, utils.ErrAdminInactive
		}
	case user.Role == models.RoleAgent:
		if err := s.checkAgentGate(user); err != nil {
			return "", nil, err
		}
	default:
		if !user.IsActive {
			return "", nil, utils.ErrAccountInactive
		}
	}

	token, err := utils.GenerateJWT(user.ID, user.Username, string(user.Role))
	if err != nil {
		return "", nil, err
	}

	if user.Role.IsAdminRole() {
		if err := s.sessionCache.Put(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to capture session snapshot: %w", err)
		}
		s.activitySvc.record(&RecordParams{
			ActorID:     user.ID,
			ActionType:  models.ActionLogin,
			Description: fmt.Sprintf("Admin %s logged in", user.Username),
			IPAddress:   ip,
		})
	}

	if err := s.userRepo.RecordLogin(user.ID, ip); err != nil {
		log.Error().Err(err).Int("user_id", user.ID).Msg("Failed to record login")
	}

	log.Info().Str("username", username).Str("role", string(user.Role)).Msg("Login successful")
	return token, user, nil
}

// checkAgentGate maps the application state to the login outcome. An agent
// authenticates only when approved AND active AND verified.
func (s *AuthService) checkAgentGate(user *models.User) error {
	app, err := s.appRepo.GetByApplicantID(user.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.ErrApplicationMissing
		}
		return err
	}

	switch app.Status {
	case models.ApplicationApproved:
		if user.IsActive && user.IsVerified {
			return nil
		}
		return utils.ErrAccountInactive
	case models.ApplicationPending, models.ApplicationUnderReview:
		return utils.ErrApplicationPending
	case models.ApplicationNeedsInfo:
		return utils.ErrApplicationNeedsInfo
	case models.ApplicationRejected:
		return utils.ErrApplicationRejected
	}
	return utils.ErrAccountInactive
}

// Logout invalidates the session snapshot and audits admin logouts.
func (s *AuthService) Logout(ctx context.Context, userID int, username, role, ip string) error {
	if err := s.sessionCache.Invalidate(ctx, userID); err != nil {
		return err
	}
	if models.Role(role).IsAdminRole() {
		s.activitySvc.record(&RecordParams{
			ActorID:     userID,
			ActionType:  models.ActionLogout,
			Description: fmt.Sprintf("Admin %s logged out", username),
			IPAddress:   ip,
		})
	}
	return nil
}

// RefreshSession re-reads the account from storage and rewrites the session
// snapshot. This is the explicit escape hatch from the login-time staleness
// window: without it, permission grants apply only after re-login.
func (s *AuthService) RefreshSession(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	if !user.Role.IsAdminRole() {
		return nil, utils.ErrInvalidRole
	}
	if !user.IsAdminActive {
		return nil, utils.ErrAdminInactive
	}
	if err := s.sessionCache.Put(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
