package service

import (
	"context"

	"go.uber.org/zap"

	"socialdl/internal/domain"
	"socialdl/internal/repository"
)

// Stats is the admin overview of bot usage
type Stats struct {
	Users     int                           `json:"users"`
	Downloads map[domain.DownloadStatus]int `json:"downloads"`
}

// DownloadLogService records download stage transitions
type DownloadLogService struct {
	downloadRepo repository.DownloadRepository
	userRepo     repository.UserRepository
	logger       *zap.Logger
}

// NewDownloadLogService creates a new download log service
func NewDownloadLogService(
	downloadRepo repository.DownloadRepository,
	userRepo repository.UserRepository,
	logger *zap.Logger,
) *DownloadLogService {
	return &DownloadLogService{
		downloadRepo: downloadRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// Record appends one log row. A store failure is logged and does not
// interrupt the download.
func (s *DownloadLogService) Record(ctx context.Context, entry domain.DownloadLogEntry) {
	if _, err := s.downloadRepo.AppendLog(ctx, entry); err != nil {
		s.logger.Error("Failed to record download",
			zap.Int64("user_id", entry.TelegramUserID),
			zap.String("url", entry.URL),
			zap.String("status", string(entry.Status)),
			zap.Error(err),
		)
	}
}

// Recent returns the newest log rows
func (s *DownloadLogService) Recent(ctx context.Context, limit int) ([]domain.DownloadLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.downloadRepo.RecentLogs(ctx, limit)
}

// Stats returns user and download counters
func (s *DownloadLogService) Stats(ctx context.Context) (Stats, error) {
	users, err := s.userRepo.CountUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	counts, err := s.downloadRepo.CountByStatus(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Users: users, Downloads: counts}, nil
}
