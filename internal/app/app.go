package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"autodealer/internal/config"
	"autodealer/internal/handlers"
	"autodealer/internal/middleware"
	"autodealer/internal/pdf"
	"autodealer/internal/realtime"
	"autodealer/internal/repositories"
	"autodealer/internal/routes"
	"autodealer/internal/services"
)

func setupLogging(cfg config.LogConfig) {
	if strings.EqualFold(cfg.Format, "text") {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logrus.WithField("level", cfg.Level).Warn("[app] unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// buildNotifier combines the channels that are configured. Telegram is
// returned separately because the webhook handler needs it too.
func buildNotifier(cfg *config.Config) (services.MultiNotifier, *services.TelegramService) {
	var notifiers services.MultiNotifier
	var tg *services.TelegramService

	if cfg.Telegram.BotToken != "" {
		t, err := services.NewTelegramService(cfg.Telegram.BotToken)
		if err != nil {
			logrus.WithError(err).Error("[app] telegram disabled")
		} else {
			tg = t
			notifiers = append(notifiers, t)
		}
	}
	if cfg.Email.SMTPHost != "" && cfg.Email.FromEmail != "" {
		notifiers = append(notifiers, services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		))
	}
	return notifiers, tg
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := repositories.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logrus.WithError(err).Warn("[app] db close failed")
	}
}

// Run serves the HTTP API until SIGINT or SIGTERM.
func Run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === DB ===
	db, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB(db)

	// === Repos ===
	adminRepo := repositories.NewAdminRepository(db)
	leadRepo := repositories.NewLeadRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	activityRepo := repositories.NewActivityRepository(db)
	commentRepo := repositories.NewCommentRepository(db)
	meetingRepo := repositories.NewMeetingRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	attachmentRepo := repositories.NewAttachmentRepository(db)
	linkRepo := repositories.NewTelegramLinkRepository(db)

	// === Services ===
	authService := services.NewAuthService(adminRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err := authService.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapEmail, cfg.Auth.BootstrapPassword, cfg.Leads.DefaultProject); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	feed := realtime.NewLeadFeed()
	notifier, tg := buildNotifier(cfg)

	leadService := services.NewLeadService(services.LeadServiceDeps{
		Leads:          leadRepo,
		Tasks:          taskRepo,
		Admins:         adminRepo,
		Comments:       commentRepo,
		Meetings:       meetingRepo,
		Activities:     activityRepo,
		Publisher:      feed,
		Notifier:       notifier,
		DefaultProject: cfg.Leads.DefaultProject,
		FollowUpAfter:  cfg.Leads.FollowUpAfter,
	})
	taskService := services.NewLeadTaskService(leadService)
	extrasService := services.NewLeadExtrasService(leadService, tagRepo, attachmentRepo)

	// === Handlers ===
	var tgClient handlers.TelegramClient
	if tg != nil {
		tgClient = tg
	}
	authHandler := handlers.NewAuthHandler(authService)
	leadHandler := handlers.NewLeadHandler(leadService, taskService, adminRepo, pdf.NewCardGenerator(cfg.PDF.FontPath))
	taskHandler := handlers.NewLeadTaskHandler(taskService, leadService)
	extrasHandler := handlers.NewLeadExtrasHandler(extrasService)
	feedHandler := handlers.NewFeedHandler(feed)
	integrationsHandler := handlers.NewIntegrationsHandler(tgClient, linkRepo, adminRepo, taskRepo)

	// === Gin ===
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS())

	routes.SetupRoutes(
		router,
		authService,
		adminRepo,
		authHandler,
		leadHandler,
		taskHandler,
		extrasHandler,
		feedHandler,
		integrationsHandler,
	)

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).Info("[app] listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("[app] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
