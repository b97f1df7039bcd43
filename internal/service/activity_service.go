package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/utils"
)

// ActivityService writes and reads the admin audit trail.
type ActivityService struct {
	logRepo *repository.ActivityLogRepository
}

// NewActivityService constructs an ActivityService.
func NewActivityService(logRepo *repository.ActivityLogRepository) *ActivityService {
	return &ActivityService{logRepo: logRepo}
}

// RecordParams describes one administrative action to be audited.
type RecordParams struct {
	ActorID     int
	ActionType  models.ActionType
	Description string
	TargetModel *string
	TargetID    *int
	IPAddress   string
	UserAgent   string
	HighRisk    bool
}

// Record appends an audit entry. The high-risk flag is derived at write
// time: delete, ban, refund and permission actions are always flagged,
// whatever the caller passed. Storage errors propagate to the caller.
func (s *ActivityService) Record(p *RecordParams) (*models.ActivityLog, error) {
	if !p.ActionType.Valid() {
		return nil, utils.NewValidationError("action_type", "unknown action type")
	}

	highRisk := p.HighRisk
	if p.ActionType.HighRisk() {
		highRisk = true
	}

	var userAgent *string
	if p.UserAgent != "" {
		userAgent = &p.UserAgent
	}

	entry := &models.ActivityLog{
		AdminID:     p.ActorID,
		ActionType:  p.ActionType,
		Description: p.Description,
		TargetModel: p.TargetModel,
		TargetID:    p.TargetID,
		IPAddress:   p.IPAddress,
		UserAgent:   userAgent,
		DeviceInfo:  models.NewDeviceInfo(p.IPAddress, p.UserAgent),
		IsHighRisk:  highRisk,
	}

	if err := s.logRepo.Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// record is the fire-and-forget variant used by sibling services: audit
// write failures are logged but never fail the primary mutation, which has
// already committed.
func (s *ActivityService) record(p *RecordParams) {
	if _, err := s.Record(p); err != nil {
		log.Error().Err(err).
			Str("action_type", string(p.ActionType)).
			Int("actor_id", p.ActorID).
			Msg("Failed to record admin activity")
	}
}

// List returns audit entries matching the filter plus the total count.
func (s *ActivityService) List(filter *repository.LogFilter) ([]*models.ActivityLog, int, error) {
	entries, err := s.logRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.logRepo.Count(filter)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// ExportCSV renders the filtered audit trail as CSV and records the export
// itself as an audited action.
func (s *ActivityService) ExportCSV(filter *repository.LogFilter, actorID int, ip, userAgent string) ([]byte, error) {
	entries, err := s.logRepo.List(filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"id", "admin_id", "action_type", "description", "target_model", "target_id", "ip_address", "timestamp", "is_high_risk"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		targetModel := ""
		if e.TargetModel != nil {
			targetModel = *e.TargetModel
		}
		targetID := ""
		if e.TargetID != nil {
			targetID = strconv.Itoa(*e.TargetID)
		}
		record := []string{
			strconv.Itoa(e.ID),
			strconv.Itoa(e.AdminID),
			string(e.ActionType),
			e.Description,
			targetModel,
			targetID,
			e.IPAddress,
			e.Timestamp.Format("2006-01-02 15:04:05"),
			strconv.FormatBool(e.IsHighRisk),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	s.record(&RecordParams{
		ActorID:     actorID,
		ActionType:  models.ActionExport,
		Description: fmt.Sprintf("Exported %d activity log entries to CSV", len(entries)),
		IPAddress:   ip,
		UserAgent:   userAgent,
	})

	return buf.Bytes(), nil
}
