package models

import "time"

// NotificationType categorizes an admin notification.
type NotificationType string

const (
	NotificationActivity          NotificationType = "activity"
	NotificationSystem            NotificationType = "system"
	NotificationSecurity          NotificationType = "security"
	NotificationPayment           NotificationType = "payment"
	NotificationUser              NotificationType = "user"
	NotificationPermissionRequest NotificationType = "permission_request"
)

// NotificationPriority orders notifications for the admin dashboard.
type NotificationPriority string

const (
	PriorityLow      NotificationPriority = "low"
	PriorityMedium   NotificationPriority = "medium"
	PriorityHigh     NotificationPriority = "high"
	PriorityCritical NotificationPriority = "critical"
)

// AdminNotification is a mailbox entry for one admin. Created as a side
// effect of workflow transitions, read and dismissed independently.
type AdminNotification struct {
	ID             int                  `db:"id" json:"id"`
	Title          string               `db:"title" json:"title"`
	Message        string               `db:"message" json:"message"`
	Type           NotificationType     `db:"notification_type" json:"notificationType"`
	Priority       NotificationPriority `db:"priority" json:"priority"`
	RelatedAdminID int                  `db:"related_admin_id" json:"relatedAdminId"`
	RelatedLogID   *int                 `db:"related_log_id" json:"relatedLogId,omitempty"`
	IsRead         bool                 `db:"is_read" json:"isRead"`
	CreatedAt      time.Time            `db:"created_at" json:"createdAt"`
}
