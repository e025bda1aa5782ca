package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"socialdl/internal/domain"
	"socialdl/internal/repository"
)

// ErrUnknownSetting is returned when an admin tries to set an unsupported key
var ErrUnknownSetting = errors.New("unknown setting")

// ErrInvalidSettingValue is returned for values other than "true"/"false"
var ErrInvalidSettingValue = errors.New("setting value must be true or false")

// SettingsService reads and writes feature toggles
type SettingsService struct {
	settingRepo repository.SettingRepository
	logger      *zap.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingRepo repository.SettingRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		settingRepo: settingRepo,
		logger:      logger,
	}
}

// IsEnabled reports whether a toggle is on. Missing keys and store errors read as off.
func (s *SettingsService) IsEnabled(ctx context.Context, key string) bool {
	value, ok, err := s.settingRepo.GetSetting(ctx, key)
	if err != nil {
		s.logger.Error("Failed to read setting", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	return domain.Setting{Key: key, Value: value}.Enabled()
}

// PlatformEnabled reports whether downloads for p are switched on
func (s *SettingsService) PlatformEnabled(ctx context.Context, p domain.Platform) bool {
	return s.IsEnabled(ctx, p.SettingKey())
}

// EnabledPlatforms returns the enabled platforms in menu order
func (s *SettingsService) EnabledPlatforms(ctx context.Context) []domain.Platform {
	var platforms []domain.Platform
	for _, p := range domain.Platforms {
		if s.PlatformEnabled(ctx, p) {
			platforms = append(platforms, p)
		}
	}
	return platforms
}

// ForceSubscribeEnabled reports whether channel membership is mandatory
func (s *SettingsService) ForceSubscribeEnabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, domain.SettingForceSubscribe)
}

// List returns every stored setting
func (s *SettingsService) List(ctx context.Context) ([]domain.Setting, error) {
	return s.settingRepo.ListSettings(ctx)
}

// Set stores a known boolean toggle
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	if !isKnownSetting(key) {
		return fmt.Errorf("%s: %w", key, ErrUnknownSetting)
	}
	if value != "true" && value != "false" {
		return ErrInvalidSettingValue
	}

	if err := s.settingRepo.SetSetting(ctx, key, value); err != nil {
		return err
	}

	s.logger.Info("Setting changed", zap.String("key", key), zap.String("value", value))
	return nil
}

func isKnownSetting(key string) bool {
	if key == domain.SettingForceSubscribe {
		return true
	}
	for _, p := range domain.Platforms {
		if key == p.SettingKey() {
			return true
		}
	}
	return false
}
