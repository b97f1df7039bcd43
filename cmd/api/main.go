package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gharsewa/estate_api/internal/cache"
	"github.com/gharsewa/estate_api/internal/config"
	"github.com/gharsewa/estate_api/internal/database"
	"github.com/gharsewa/estate_api/internal/handler"
	"github.com/gharsewa/estate_api/internal/middleware"
	"github.com/gharsewa/estate_api/internal/models"
	"github.com/gharsewa/estate_api/internal/repository"
	"github.com/gharsewa/estate_api/internal/service"
	"github.com/gharsewa/estate_api/internal/sse"
	"github.com/gharsewa/estate_api/internal/utils"
	"github.com/gharsewa/estate_api/internal/worker"
)

// main is the application entrypoint for the Gharsewa marketplace API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting estate api")

	utils.SetJWTSecret(cfg.JWTSecret)

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Session snapshot cache, TTL matches the bearer token
	sessionCache := cache.NewSessionCache(redisClient, utils.TokenTTL)

	// 4. Initialize repositories
	userRepo := repository.NewUserRepository(db)
	appRepo := repository.NewAgentApplicationRepository(db)
	requestRepo := repository.NewPermissionRequestRepository(db)
	logRepo := repository.NewActivityLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// 5. SSE hub for admin dashboards
	hub := sse.NewHub()

	// 6. Initialize services
	activitySvc := service.NewActivityService(logRepo)
	notifySvc := service.NewNotificationService(notificationRepo, hub)
	authSvc := service.NewAuthService(userRepo, appRepo, sessionCache, activitySvc)

	s3Svc, err := service.NewS3Service(&cfg.Docs)
	if err != nil {
		log.Error().Err(err).Msg("document store initialization failed")
		os.Exit(1)
	}

	identitySvc, err := service.NewIdentityService(context.Background(), &cfg.AWS, appRepo)
	if err != nil {
		log.Warn().Err(err).Msg("identity service initialization failed - document check disabled")
		identitySvc = nil
	}

	appSvc := service.NewAgentApplicationService(appRepo, userRepo, activitySvc, notifySvc, identitySvc)
	permSvc := service.NewPermissionService(requestRepo, userRepo, activitySvc, notifySvc)
	userAdminSvc := service.NewUserAdminService(userRepo, activitySvc)

	// 7. Initialize handlers
	loginLimiter := middleware.NewInvalidAuthRateLimiter()
	handlers := &Handlers{
		Health:       handler.NewHealthHandler(db, redisClient),
		Auth:         handler.NewAuthHandler(authSvc, loginLimiter),
		Application:  handler.NewAgentApplicationHandler(appSvc, s3Svc),
		Permission:   handler.NewPermissionRequestHandler(permSvc),
		AdminUser:    handler.NewAdminUserHandler(userAdminSvc),
		ActivityLog:  handler.NewActivityLogHandler(activitySvc),
		Notification: handler.NewNotificationHandler(notifySvc, hub),
		Stats:        handler.NewStatsHandler(userRepo, appRepo, requestRepo, logRepo, hub),
	}

	// 8. Initialize middleware
	jwtMw := middleware.NewJWTMiddleware()
	permMw := middleware.NewPermissionMiddleware(sessionCache)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, jwtMw, permMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewApplicationReminderWorker(
		appRepo, userRepo, notifySvc,
		cfg.Worker.ReminderInterval,
		cfg.Worker.ReminderStaleAfter,
	).Start(ctx)
	go worker.NewLicenseExpiryWorker(
		appRepo, userRepo, notifySvc,
		cfg.Worker.LicenseSweepInterval,
	).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health       *handler.HealthHandler
	Auth         *handler.AuthHandler
	Application  *handler.AgentApplicationHandler
	Permission   *handler.PermissionRequestHandler
	AdminUser    *handler.AdminUserHandler
	ActivityLog  *handler.ActivityLogHandler
	Notification *handler.NotificationHandler
	Stats        *handler.StatsHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMw *middleware.JWTMiddleware, permMw *middleware.PermissionMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Public auth routes
	router.POST("/v1/auth/register", handlers.Auth.Register)
	router.POST("/v1/auth/login", handlers.Auth.Login)

	// Authenticated session routes
	auth := router.Group("/v1/auth")
	auth.Use(jwtMw.Handle())
	{
		auth.POST("/logout", handlers.Auth.Logout)
		auth.POST("/session/refresh", handlers.Auth.RefreshSession)
	}

	// Applicant-facing application routes
	apps := router.Group("/v1/applications")
	apps.Use(jwtMw.Handle())
	{
		apps.POST("", handlers.Application.Submit)
		apps.GET("/me", handlers.Application.GetMine)
		apps.POST("/documents/:kind", handlers.Application.UploadDocument)
	}

	// SSE stream authenticates via query token, outside the JWT middleware
	router.GET("/v1/admin/notifications/stream", handlers.Notification.Stream)

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.Use(jwtMw.Handle())
	{
		// Dashboard
		admin.GET("/stats", permMw.RequireAdmin(), handlers.Stats.GetStats)

		// Agent application review
		admin.GET("/applications", permMw.Require(models.PermissionManageUsers), handlers.Application.List)
		admin.GET("/applications/:id", permMw.Require(models.PermissionManageUsers), handlers.Application.Get)
		admin.POST("/applications/:id/review", permMw.Require(models.PermissionManageUsers), handlers.Application.Review)
		admin.POST("/applications/bulk-review", permMw.Require(models.PermissionManageUsers), handlers.Application.BulkReview)

		// Account moderation
		admin.GET("/users/:id", permMw.Require(models.PermissionManageUsers), handlers.AdminUser.Get)
		admin.POST("/users/:id/ban", permMw.Require(models.PermissionManageUsers), handlers.AdminUser.Ban)
		admin.POST("/users/:id/unban", permMw.Require(models.PermissionManageUsers), handlers.AdminUser.Unban)
		admin.POST("/users/:id/verify", permMw.Require(models.PermissionManageUsers), handlers.AdminUser.Verify)
		admin.POST("/users/bulk-ban", permMw.Require(models.PermissionManageUsers), handlers.AdminUser.BulkBan)
		admin.POST("/users/bulk-verify", permMw.Require(models.PermissionManageUsers), handlers.AdminUser.BulkVerify)

		// Permission request workflow
		admin.POST("/permission-requests", permMw.RequireAdmin(), handlers.Permission.Submit)
		admin.GET("/permission-requests/available", permMw.RequireAdmin(), handlers.Permission.Available)
		admin.GET("/permission-requests/pending", permMw.RequireSuperAdmin(), handlers.Permission.ListPending)
		admin.GET("/permission-requests/resolved", permMw.RequireSuperAdmin(), handlers.Permission.ListResolved)
		admin.POST("/permission-requests/:id/approve", permMw.RequireSuperAdmin(), handlers.Permission.Approve)
		admin.POST("/permission-requests/:id/reject", permMw.RequireSuperAdmin(), handlers.Permission.Reject)

		// Audit trail
		admin.GET("/activity-logs", permMw.Require(models.PermissionViewLogs), handlers.ActivityLog.List)
		admin.GET("/activity-logs/export", permMw.Require(models.PermissionExportData), handlers.ActivityLog.Export)

		// Notification mailbox
		admin.GET("/notifications", permMw.RequireAdmin(), handlers.Notification.List)
		admin.POST("/notifications/:id/read", permMw.RequireAdmin(), handlers.Notification.MarkRead)
		admin.POST("/notifications/read-all", permMw.RequireAdmin(), handlers.Notification.MarkAllRead)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
