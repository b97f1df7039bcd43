package service

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/sse"
)

// NotificationService manages the admin notification mailbox and pushes new
// entries to connected dashboards.
type NotificationService struct {
	notificationRepo *repository.NotificationRepository
	hub              *sse.Hub
}

// NewNotificationService constructs a NotificationService. hub may be nil in
// contexts without live streaming (tests, CLI tools).
func NewNotificationService(notificationRepo *repository.NotificationRepository, hub *sse.Hub) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, hub: hub}
}

// Notify creates a mailbox entry for an admin and broadcasts it. Mailbox
// writes are fire-and-forget from the caller's perspective: a failure is
// logged, never surfaced, because the triggering mutation already committed.
func (s *NotificationService) Notify(n *models.AdminNotification) {
	if err := s.notificationRepo.Create(n); err != nil {
		log.Error().Err(err).
			Int("admin_id", n.RelatedAdminID).
			Str("title", n.Title).
			Msg("Failed to create admin notification")
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(&sse.NotificationEvent{
			Event:          sse.EventNotificationCreated,
			NotificationID: n.ID,
			Title:          n.Title,
			Message:        n.Message,
			Type:           string(n.Type),
			Priority:       string(n.Priority),
			RelatedAdminID: n.RelatedAdminID,
			Timestamp:      time.Now(),
		})
	}
}

// List returns an admin's notifications.
func (s *NotificationService) List(adminID int, unreadOnly bool, limit int) ([]*models.AdminNotification, error) {
	return s.notificationRepo.ListByAdmin(adminID, unreadOnly, limit)
}

// MarkRead marks one notification read; returns the affected count.
func (s *NotificationService) MarkRead(id, adminID int) (int64, error) {
	return s.notificationRepo.MarkRead(id, adminID)
}

// MarkAllRead marks all of the admin's notifications read.
func (s *NotificationService) MarkAllRead(adminID int) (int64, error) {
	return s.notificationRepo.MarkAllRead(adminID)
}

// CountUnread returns the admin's unread notification count.
func (s *NotificationService) CountUnread(adminID int) (int, error) {
	return s.notificationRepo.CountUnread(adminID)
}
