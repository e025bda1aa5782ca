package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"socialdl/internal/domain"
)

const (
	msgExtractionFailed = "Could not download this link. Make sure it is valid and the content is public."
	msgNothingFound     = "Nothing downloadable was found at this link."
	msgBusy             = "The download was cancelled before it could start. Please try again."
)

// Service orchestrates extraction and classifies its result
type Service struct {
	extractor Extractor
	slots     *semaphore.Weighted
	maxSize   int64
	logger    *zap.Logger
}

// NewService creates a download service running at most maxParallel extractions at once
func NewService(extractor Extractor, maxParallel int64, logger *zap.Logger) *Service {
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Service{
		extractor: extractor,
		slots:     semaphore.NewWeighted(maxParallel),
		maxSize:   domain.MaxDocumentSize,
		logger:    logger,
	}
}

type extraction struct {
	files []ExtractedFile
	err   error
}

// Fetch downloads url and returns a typed result. It never returns an error:
// every failure becomes a FailureResult.
func (s *Service) Fetch(ctx context.Context, url string, policy domain.QualityPolicy) domain.DownloadResult {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		s.logger.Warn("Download slot not acquired", zap.String("url", url), zap.Error(err))
		return domain.FailureResult{Message: msgBusy}
	}

	done := make(chan extraction, 1)
	go func() {
		defer s.slots.Release(1)
		defer func() {
			if r := recover(); r != nil {
				done <- extraction{err: fmt.Errorf("extractor panic: %v", r)}
			}
		}()
		files, err := s.extractor.Extract(ctx, url, policy)
		done <- extraction{files: files, err: err}
	}()

	res := <-done
	if res.err != nil {
		err := &domain.ExtractionError{URL: url, Err: res.err}
		s.logger.Error("Extraction failed", zap.String("url", url), zap.Error(err))
		removeAll(res.files, s.logger)
		return domain.FailureResult{Message: msgExtractionFailed}
	}

	files := s.describe(res.files)
	if len(files) == 0 {
		s.logger.Warn("Extraction returned no files",
			zap.String("url", url),
			zap.Error(&domain.ExtractionError{URL: url, Err: domain.ErrEmptyResult}),
		)
		return domain.FailureResult{Message: msgNothingFound}
	}

	return s.classify(files)
}

// describe stats and types every extracted file, dropping the ones that vanished
func (s *Service) describe(extracted []ExtractedFile) []domain.MediaFile {
	files := make([]domain.MediaFile, 0, len(extracted))
	for _, e := range extracted {
		info, err := os.Stat(e.Path)
		if err != nil || info.IsDir() {
			s.logger.Warn("Extracted file missing", zap.String("path", e.Path), zap.Error(err))
			continue
		}
		files = append(files, domain.MediaFile{
			Path:  e.Path,
			Size:  info.Size(),
			Kind:  DetectKind(e.Path),
			Title: titleOf(e),
		})
	}
	return files
}

func (s *Service) classify(files []domain.MediaFile) domain.DownloadResult {
	if len(files) == 1 {
		if files[0].Size > s.maxSize {
			return domain.TooLargeResult{Items: files}
		}
		return domain.SingleResult{File: files[0]}
	}

	var album domain.AlbumResult
	for _, f := range files {
		if f.Size > s.maxSize {
			album.Oversized = append(album.Oversized, f)
			continue
		}
		album.Items = append(album.Items, f)
	}

	if len(album.Items) == 0 {
		return domain.TooLargeResult{Items: album.Oversized}
	}
	return album
}

// DetectKind sniffs the file content and falls back to the extension
func DetectKind(path string) domain.MediaKind {
	mtype, err := mimetype.DetectFile(path)
	if err == nil {
		if kind := kindOfMIME(mtype.String()); kind != domain.MediaDocument {
			return kind
		}
		for p := mtype.Parent(); p != nil; p = p.Parent() {
			if kind := kindOfMIME(p.String()); kind != domain.MediaDocument {
				return kind
			}
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mkv", ".webm", ".mov", ".avi", ".m4v":
		return domain.MediaVideo
	case ".mp3", ".m4a", ".ogg", ".opus", ".wav", ".flac", ".aac":
		return domain.MediaAudio
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".heic":
		return domain.MediaImage
	default:
		return domain.MediaDocument
	}
}

func kindOfMIME(m string) domain.MediaKind {
	switch {
	case strings.HasPrefix(m, "video/"):
		return domain.MediaVideo
	case strings.HasPrefix(m, "audio/"):
		return domain.MediaAudio
	case strings.HasPrefix(m, "image/"):
		return domain.MediaImage
	default:
		return domain.MediaDocument
	}
}

func titleOf(e ExtractedFile) string {
	if e.Title != "" {
		return e.Title
	}
	base := filepath.Base(e.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// removeAll deletes partial output left by a failed extraction
func removeAll(files []ExtractedFile, logger *zap.Logger) {
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to remove partial download", zap.String("path", f.Path), zap.Error(err))
		}
	}
}
