package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/gharsewa/estate_api/internal/models"
)

// NotificationRepository handles data access for admin notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationColumns = `
	id, title, message, notification_type, priority,
	related_admin_id, related_log_id, is_read, created_at`

// Create inserts a new notification row.
func (r *NotificationRepository) Create(n *models.AdminNotification) error {
	const q = `
		INSERT INTO admin_notifications (
			title, message, notification_type, priority,
			related_admin_id, related_log_id
		) VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, is_read, created_at`

	return r.db.QueryRow(q,
		n.Title, n.Message, n.Type, n.Priority, n.RelatedAdminID, n.RelatedLogID,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
}

// ListByAdmin returns an admin's notifications, newest first.
func (r *NotificationRepository) ListByAdmin(adminID int, unreadOnly bool, limit int) ([]*models.AdminNotification, error) {
	if limit <= 0 {
		limit = 50
	}
	notifications := []*models.AdminNotification{}
	var err error
	if unreadOnly {
		err = r.db.Select(&notifications, `
			SELECT `+notificationColumns+` FROM admin_notifications
			WHERE related_admin_id = $1 AND is_read = FALSE
			ORDER BY created_at DESC LIMIT $2`, adminID, limit)
	} else {
		err = r.db.Select(&notifications, `
			SELECT `+notificationColumns+` FROM admin_notifications
			WHERE related_admin_id = $1
			ORDER BY created_at DESC LIMIT $2`, adminID, limit)
	}
	return notifications, err
}

// MarkRead marks one notification read, scoped to its owner.
func (r *NotificationRepository) MarkRead(id, adminID int) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE admin_notifications SET is_read = TRUE
		WHERE id = $1 AND related_admin_id = $2`, id, adminID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkAllRead marks every unread notification for the admin as read.
func (r *NotificationRepository) MarkAllRead(adminID int) (int64, error) {
	res, err := r.db.Exec(`
		UPDATE admin_notifications SET is_read = TRUE
		WHERE related_admin_id = $1 AND is_read = FALSE`, adminID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUnread returns the unread notification count for the admin.
func (r *NotificationRepository) CountUnread(adminID int) (int, error) {
	var n int
	err := r.db.Get(&n, `
		SELECT COUNT(*) FROM admin_notifications
		WHERE related_admin_id = $1 AND is_read = FALSE`, adminID)
	return n, err
}
