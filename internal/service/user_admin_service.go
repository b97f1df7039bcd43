package service

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/utils"
)

// UserAdminService covers moderation actions admins take against accounts:
// bans, reinstatements and manual verification, all audited.
type UserAdminService struct {
	userRepo    *repository.UserRepository
	activitySvc *ActivityService
}

// NewUserAdminService constructs a UserAdminService.
func NewUserAdminService(userRepo *repository.UserRepository, activitySvc *ActivityService) *UserAdminService {
	return &UserAdminService{userRepo: userRepo, activitySvc: activitySvc}
}

// Get returns one account.
func (s *UserAdminService) Get(id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Ban deactivates an account. Ban entries land in the audit trail flagged
// high risk.
func (s *UserAdminService) Ban(id, actorID int, ip, userAgent string) error {
	affected, err := s.userRepo.SetActive(id, false)
	if err != nil {
		return err
	}
	if affected == 0 {
		return utils.ErrUserNotFound
	}

	s.audit(actorID, models.ActionBan, fmt.Sprintf("Banned account #%d", id), id, ip, userAgent)
	log.Info().Int("user_id", id).Int("actor_id", actorID).Msg("Account banned")
	return nil
}

// Unban reinstates a banned account.
func (s *UserAdminService) Unban(id, actorID int, ip, userAgent string) error {
	affected, err := s.userRepo.SetActive(id, true)
	if err != nil {
		return err
	}
	if affected == 0 {
		return utils.ErrUserNotFound
	}

	s.audit(actorID, models.ActionUnban, fmt.Sprintf("Reinstated account #%d", id), id, ip, userAgent)
	log.Info().Int("user_id", id).Int("actor_id", actorID).Msg("Account reinstated")
	return nil
}

// Verify marks an account verified. Already-verified accounts are left
// untouched so the original verification date survives.
func (s *UserAdminService) Verify(id, actorID int, ip, userAgent string) error {
	affected, err := s.userRepo.Verify(id)
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.Get(id); err != nil {
			return err
		}
		return nil
	}

	s.audit(actorID, models.ActionVerify, fmt.Sprintf("Verified account #%d", id), id, ip, userAgent)
	return nil
}

// BulkBan deactivates a set of accounts and returns how many changed.
func (s *UserAdminService) BulkBan(ids []int, actorID int, ip, userAgent string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	affected, err := s.userRepo.BulkSetActive(ids, false)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.activitySvc.record(&RecordParams{
			ActorID:     actorID,
			ActionType:  models.ActionBan,
			Description: fmt.Sprintf("Bulk banned %d accounts", affected),
			IPAddress:   ip,
			UserAgent:   userAgent,
		})
	}
	return affected, nil
}

// BulkVerify verifies a set of accounts and returns how many changed.
func (s *UserAdminService) BulkVerify(ids []int, actorID int, ip, userAgent string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	affected, err := s.userRepo.BulkVerify(ids)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		s.activitySvc.record(&RecordParams{
			ActorID:     actorID,
			ActionType:  models.ActionVerify,
			Description: fmt.Sprintf("Bulk verified %d accounts", affected),
			IPAddress:   ip,
			UserAgent:   userAgent,
		})
	}
	return affected, nil
}

func (s *UserAdminService) audit(actorID int, action models.ActionType, description string, targetID int, ip, userAgent string) {
	targetModel := "User"
	s.activitySvc.record(&RecordParams{
		ActorID:     actorID,
		ActionType:  action,
		Description: description,
		TargetModel: &targetModel,
		TargetID:    &targetID,
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
}
