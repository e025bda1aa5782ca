package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"socialdl/internal/domain"
)

// ErrMissingRequired is returned when a mandatory variable is not set
var ErrMissingRequired = errors.New("required configuration missing")

// Config holds all application configuration
type Config struct {
	BotToken   string
	DomainName string
	LogLevel   string
	Webhook    WebhookConfig
	Database   DatabaseConfig
	Admin      AdminConfig
	Download   DownloadConfig
}

// WebhookConfig holds the inbound HTTP listener settings
type WebhookConfig struct {
	ListenAddress string
	Port          string
	Path          string
	SecretToken   string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	MigrationsPath string
}

// AdminConfig holds admin notification and admin API settings
type AdminConfig struct {
	TelegramIDs   []int64
	Username      string
	Password      string
	SessionSecret string
}

// DownloadConfig holds extraction and delivery tuning
type DownloadConfig struct {
	Dir               string
	YtDlpPath         string
	QualityPolicy     domain.QualityPolicy
	MaxConcurrent     int64
	SendRatePerSecond float64
	OrphanMaxAge      time.Duration
	LogRetentionDays  int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	botToken := os.Getenv("BOT_TOKEN")

	cfg := &Config{
		BotToken:   botToken,
		DomainName: os.Getenv("DOMAIN_NAME"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		Webhook: WebhookConfig{
			ListenAddress: getEnv("WEBHOOK_LISTEN_ADDRESS", "0.0.0.0"),
			Port:          getEnv("WEBHOOK_PORT", "8443"),
			Path:          getEnv("WEBHOOK_PATH", webhookPathFor(botToken)),
			SecretToken:   os.Getenv("WEBHOOK_SECRET"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			Name:           getEnv("DB_NAME", "socialdl"),
			User:           getEnv("DB_USER", "socialdl"),
			Password:       os.Getenv("DB_PASSWORD"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
		},
		Admin: AdminConfig{
			Username:      os.Getenv("ADMIN_USERNAME"),
			Password:      os.Getenv("ADMIN_PASSWORD"),
			SessionSecret: getEnv("SESSION_SECRET", sessionSecretFor(botToken)),
		},
		Download: DownloadConfig{
			Dir:           getEnv("DOWNLOADS_DIR", "downloads"),
			YtDlpPath:     os.Getenv("YTDLP_PATH"),
			QualityPolicy: domain.ParseQualityPolicy(getEnv("QUALITY_POLICY", string(domain.QualityBestOverall))),
		},
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN: %w", ErrMissingRequired)
	}
	if cfg.DomainName == "" {
		return nil, fmt.Errorf("DOMAIN_NAME: %w", ErrMissingRequired)
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD: %w", ErrMissingRequired)
	}

	var err error
	if cfg.Admin.TelegramIDs, err = parseIDList(os.Getenv("ADMIN_TELEGRAM_IDS")); err != nil {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_IDS: %w", err)
	}
	if cfg.Download.MaxConcurrent, err = getEnvInt64("MAX_CONCURRENT_DOWNLOADS", 3); err != nil {
		return nil, err
	}
	if cfg.Download.MaxConcurrent < 1 {
		cfg.Download.MaxConcurrent = 1
	}
	if cfg.Download.SendRatePerSecond, err = getEnvFloat("SEND_RATE_PER_SECOND", 25); err != nil {
		return nil, err
	}
	if cfg.Download.OrphanMaxAge, err = getEnvDuration("ORPHAN_MAX_AGE", 2*time.Hour); err != nil {
		return nil, err
	}
	retention, err := getEnvInt64("DOWNLOAD_LOG_RETENTION_DAYS", 0)
	if err != nil {
		return nil, err
	}
	cfg.Download.LogRetentionDays = int(retention)

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// ListenAddr returns the host:port the HTTP server binds to
func (c *Config) ListenAddr() string {
	return c.Webhook.ListenAddress + ":" + c.Webhook.Port
}

// WebhookURL returns the public URL Telegram pushes updates to
func (c *Config) WebhookURL() string {
	return "https://" + c.DomainName + c.Webhook.Path
}

// IsAdmin reports whether the telegram id is listed in ADMIN_TELEGRAM_IDS
func (c *Config) IsAdmin(telegramID int64) bool {
	for _, id := range c.Admin.TelegramIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// Telegram bot tokens contain ':' which gin cannot route, so the path uses a digest
func webhookPathFor(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "/webhook/" + hex.EncodeToString(sum[:])
}

func sessionSecretFor(token string) string {
	sum := sha256.Sum256([]byte("session:" + token))
	return hex.EncodeToString(sum[:])
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
