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

// LicenseExpiryWorker flags approved agents whose real-estate license has
// lapsed so the admin team can follow up.
type LicenseExpiryWorker struct {
	appRepo   *repository.AgentApplicationRepository
	userRepo  *repository.UserRepository
	notifySvc *service.NotificationService
	interval  time.Duration
}

// NewLicenseExpiryWorker constructs a LicenseExpiryWorker.
func NewLicenseExpiryWorker(
	appRepo *repository.AgentApplicationRepository,
	userRepo *repository.UserRepository,
	notifySvc *service.NotificationService,
	interval time.Duration,
) *LicenseExpiryWorker {
	return &LicenseExpiryWorker{
		appRepo:   appRepo,
		userRepo:  userRepo,
		notifySvc: notifySvc,
		interval:  interval,
	}
}

// Start begins the sweep loop and listens for context cancellation.
func (w *LicenseExpiryWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting license expiry worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("License expiry worker stopped")
			return
		}
	}
}

func (w *LicenseExpiryWorker) run() {
	expired, err := w.appRepo.ListExpiredLicenses(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list expired licenses")
		return
	}
	if len(expired) == 0 {
		return
	}

	adminIDs, err := w.userRepo.ListActiveAdminIDs()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list admins for license sweep")
		return
	}

	for _, app := range expired {
		message := fmt.Sprintf(
			"License %s for application #%d expired on %s.",
			app.LicenseNumber, app.ID, app.LicenseExpiry.Format("2006-01-02"),
		)
		for _, adminID := range adminIDs {
			w.notifySvc.Notify(&models.AdminNotification{
				Title:          "Agent license expired",
				Message:        message,
				Type:           models.NotificationSecurity,
				Priority:       models.PriorityHigh,
				RelatedAdminID: adminID,
			})
		}
	}

	log.Info().Int("expired", len(expired)).Msg("Flagged expired agent licenses")
}
