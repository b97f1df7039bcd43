package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/service"
)

// ApplicationReminderWorker nags the admin team about agent applications
// that have sat unreviewed past the staleness cutoff.
type ApplicationReminderWorker struct {
	appRepo    *repository.AgentApplicationRepository
	userRepo   *repository.UserRepository
	notifySvc  *service.NotificationService
	interval   time.Duration
	staleAfter time.Duration
}

// NewApplicationReminderWorker constructs an ApplicationReminderWorker.
func NewApplicationReminderWorker(
	appRepo *repository.AgentApplicationRepository,
	userRepo *repository.UserRepository,
	notifySvc *service.NotificationService,
	interval, staleAfter time.Duration,
) *ApplicationReminderWorker {
	return &ApplicationReminderWorker{
		appRepo:    appRepo,
		userRepo:   userRepo,
		notifySvc:  notifySvc,
		interval:   interval,
		staleAfter: staleAfter,
	}
}

// Start begins the reminder loop and listens for context cancellation.
func (w *ApplicationReminderWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting application reminder worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Application reminder worker stopped")
			return
		}
	}
}

func (w *ApplicationReminderWorker) run() {
	stale, err := w.appRepo.ListStale(time.Now().Add(-w.staleAfter))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list stale applications")
		return
	}
	if len(stale) == 0 {
		return
	}

	adminIDs, err := w.userRepo.ListActiveAdminIDs()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list admins for reminder")
		return
	}

	oldest := stale[0]
	message := fmt.Sprintf(
		"%d agent applications are waiting for review; the oldest was submitted %s.",
		len(stale), oldest.SubmittedAt.Format("2006-01-02"),
	)
	for _, adminID := range adminIDs {
		w.notifySvc.Notify(&models.AdminNotification{
			Title:          "Agent applications awaiting review",
			Message:        message,
			Type:           models.NotificationSystem,
			Priority:       models.PriorityMedium,
			RelatedAdminID: adminID,
		})
	}

	log.Info().Int("stale", len(stale)).Int("admins", len(adminIDs)).Msg("Sent application review reminders")
}
