package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/gharsewa/estate_api/internal/models"
)

// ActivityLogRepository handles data access for the append-only audit trail.
type ActivityLogRepository struct {
	db *sqlx.DB
}

// NewActivityLogRepository creates a new ActivityLogRepository.
func NewActivityLogRepository(db *sqlx.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

const logColumns = `
	id, admin_id, action_type, description, target_model, target_id,
	ip_address, user_agent, device_info, timestamp, is_high_risk`

// Create appends one audit entry. Entries are never updated or deleted.
func (r *ActivityLogRepository) Create(entry *models.ActivityLog) error {
	const q = `
		INSERT INTO admin_activity_logs (
			admin_id, action_type, description, target_model, target_id,
			ip_address, user_agent, device_info, is_high_risk
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, timestamp`

	return r.db.QueryRow(q,
		entry.AdminID, entry.ActionType, entry.Description, entry.TargetModel, entry.TargetID,
		entry.IPAddress, entry.UserAgent, entry.DeviceInfo, entry.IsHighRisk,
	).Scan(&entry.ID, &entry.Timestamp)
}

// LogFilter narrows audit trail listings.
type LogFilter struct {
	ActionType   models.ActionType
	AdminID      int
	HighRiskOnly bool
	Limit        int
	Offset       int
}

func (f *LogFilter) where() (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	if f.ActionType != "" {
		args = append(args, f.ActionType)
		clauses = append(clauses, fmt.Sprintf("action_type = $%d", len(args)))
	}
	if f.AdminID > 0 {
		args = append(args, f.AdminID)
		clauses = append(clauses, fmt.Sprintf("admin_id = $%d", len(args)))
	}
	if f.HighRiskOnly {
		clauses = append(clauses, "is_high_risk = TRUE")
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns audit entries matching the filter, newest first.
func (r *ActivityLogRepository) List(filter *LogFilter) ([]*models.ActivityLog, error) {
	where, args := filter.where()
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	q := `SELECT ` + logColumns + ` FROM admin_activity_logs` + where +
		fmt.Sprintf(` ORDER BY timestamp DESC LIMIT $%d`, len(args))
	args = append(args, filter.Offset)
	q += fmt.Sprintf(` OFFSET $%d`, len(args))

	entries := []*models.ActivityLog{}
	err := r.db.Select(&entries, q, args...)
	return entries, err
}

// Count returns the number of audit entries matching the filter.
func (r *ActivityLogRepository) Count(filter *LogFilter) (int, error) {
	where, args := filter.where()
	var n int
	err := r.db.Get(&n, `SELECT COUNT(*) FROM admin_activity_logs`+where, args...)
	return n, err
}

// CountHighRiskSince returns the number of high-risk entries after the cutoff.
func (r *ActivityLogRepository) CountHighRiskSince(cutoff time.Time) (int, error) {
	var n int
	err := r.db.Get(&n, `
		SELECT COUNT(*) FROM admin_activity_logs
		WHERE is_high_risk = TRUE AND timestamp >= $1`, cutoff)
	return n, err
}
