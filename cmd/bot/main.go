package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"socialdl/internal/config"
	"socialdl/internal/delivery"
	"socialdl/internal/download"
	"socialdl/internal/extractor"
	"socialdl/internal/handler"
	"socialdl/internal/middleware"
	"socialdl/internal/repository/postgres"
	"socialdl/internal/server"
	"socialdl/internal/service"
	"socialdl/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const cleanupInterval = time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting social media downloader bot")

	if err := os.MkdirAll(cfg.Download.Dir, 0o755); err != nil {
		logger.Fatal("Failed to create downloads directory", zap.String("dir", cfg.Download.Dir), zap.Error(err))
	}

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("Database connection established")

	if err := runMigrations(db, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepo(db)
	settingRepo := postgres.NewSettingRepo(db)
	channelRepo := postgres.NewChannelRepo(db)
	downloadRepo := postgres.NewDownloadRepo(db)
	adminRepo := postgres.NewAdminRepo(db)

	// Initialize Telegram bot. Updates arrive through the HTTP server below,
	// so the bot runs without a poller.
	bot, err := tele.NewBot(tele.Settings{
		Token: cfg.BotToken,
		OnError: func(err error, c tele.Context) {
			logger.Error("Unhandled bot error", zap.Error(err))
		},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized", zap.String("username", bot.Me.Username))

	// Initialize services
	notifier := telegram.NewAdminNotifier(bot, cfg.Admin.TelegramIDs, logger)
	userService := service.NewUserService(userRepo, logger, notifier)
	settingsService := service.NewSettingsService(settingRepo, logger)
	channelService := service.NewChannelService(channelRepo, logger)
	logService := service.NewDownloadLogService(downloadRepo, userRepo, logger)
	adminService := service.NewAdminService(adminRepo, logger)
	gate := service.NewSubscriptionGate(settingsService, channelRepo, telegram.NewMembershipChecker(bot), logger)
	maintenance := service.NewMaintenanceService(
		downloadRepo,
		cfg.Download.Dir,
		cfg.Download.OrphanMaxAge,
		cfg.Download.LogRetentionDays,
		logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := adminService.EnsureSuperAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		logger.Fatal("Failed to provision super admin", zap.Error(err))
	}

	// Download and delivery
	ytdlp := extractor.NewYtDlp(cfg.Download.Dir, cfg.Download.YtDlpPath, logger)
	downloads := download.NewService(ytdlp, cfg.Download.MaxConcurrent, logger)
	pipeline := delivery.NewPipeline(telegram.NewMediaSender(bot, cfg.Download.SendRatePerSecond, logger), logger)

	bot.Use(middleware.TrackUser(userService, logger))

	h := handler.NewHandler(
		bot,
		userService,
		settingsService,
		gate,
		logService,
		downloads,
		pipeline,
		cfg.Download.QualityPolicy,
		logger,
	)
	h.RegisterHandlers(bot)

	logger.Info("Handlers registered")

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(
		server.Options{
			ListenAddr:    cfg.ListenAddr(),
			WebhookPath:   cfg.Webhook.Path,
			WebhookSecret: cfg.Webhook.SecretToken,
			SessionSecret: cfg.Admin.SessionSecret,
			SecureCookies: true,
		},
		adminService,
		settingsService,
		channelService,
		logService,
		logger,
	)

	go runCleanupJob(ctx, maintenance, logger)

	// Handlers are registered, so updates can be dispatched from the first request
	srv.ServeUpdates(bot)
	go func() {
		if err := srv.Run(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	webhook := &tele.Webhook{
		Endpoint:    &tele.WebhookEndpoint{PublicURL: cfg.WebhookURL()},
		SecretToken: cfg.Webhook.SecretToken,
	}
	if err := bot.SetWebhook(webhook); err != nil {
		logger.Fatal("Failed to register webhook", zap.Error(err))
	}

	logger.Info("Bot started successfully", zap.String("webhook", cfg.Webhook.Path))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shut down HTTP server", zap.Error(err))
	}
	cancel()

	logger.Info("Bot stopped gracefully")
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations applies pending schema migrations
func runMigrations(db *sql.DB, source string, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// runCleanupJob sweeps orphaned downloads and prunes old log rows
func runCleanupJob(ctx context.Context, maintenance *service.MaintenanceService, logger *zap.Logger) {
	if err := maintenance.CleanupOldData(ctx); err != nil {
		logger.Error("Failed to run initial cleanup", zap.Error(err))
	}

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup job stopped")
			return
		case <-ticker.C:
			logger.Info("Running scheduled cleanup")
			if err := maintenance.CleanupOldData(ctx); err != nil {
				logger.Error("Failed to run scheduled cleanup", zap.Error(err))
			}
		}
	}
}
