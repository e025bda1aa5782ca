package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"socialdl/internal/repository"
)

// MaintenanceService removes leftover files and prunes old download logs
type MaintenanceService struct {
	downloadRepo  repository.DownloadRepository
	downloadsDir  string
	orphanMaxAge  time.Duration
	retentionDays int
	now           func() time.Time
	logger        *zap.Logger
}

// NewMaintenanceService creates a new maintenance service
func NewMaintenanceService(
	downloadRepo repository.DownloadRepository,
	downloadsDir string,
	orphanMaxAge time.Duration,
	retentionDays int,
	logger *zap.Logger,
) *MaintenanceService {
	return &MaintenanceService{
		downloadRepo:  downloadRepo,
		downloadsDir:  downloadsDir,
		orphanMaxAge:  orphanMaxAge,
		retentionDays: retentionDays,
		now:           time.Now,
		logger:        logger,
	}
}

// CleanupOldData sweeps orphaned files and prunes the download log
func (s *MaintenanceService) CleanupOldData(ctx context.Context) error {
	s.logger.Info("Starting cleanup",
		zap.String("dir", s.downloadsDir),
		zap.Duration("orphan_max_age", s.orphanMaxAge),
		zap.Int("retention_days", s.retentionDays),
	)

	removed, sweepErr := s.sweepOrphans()
	if sweepErr != nil {
		s.logger.Error("Failed to sweep orphaned files", zap.Error(sweepErr))
	}

	var pruned int64
	var pruneErr error
	if s.retentionDays > 0 {
		cutoff := s.now().AddDate(0, 0, -s.retentionDays)
		pruned, pruneErr = s.downloadRepo.DeleteOlderThan(ctx, cutoff)
		if pruneErr != nil {
			s.logger.Error("Failed to prune download log", zap.Error(pruneErr))
		}
	}

	s.logger.Info("Cleanup completed",
		zap.Int("files_removed", removed),
		zap.Int64("log_rows_pruned", pruned),
	)
	return errors.Join(sweepErr, pruneErr)
}

func (s *MaintenanceService) sweepOrphans() (int, error) {
	entries, err := os.ReadDir(s.downloadsDir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.orphanMaxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.downloadsDir, e.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}
