package telegram

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v3"

	"socialdl/internal/delivery"
	"socialdl/internal/domain"
)

// API is the subset of *tele.Bot used to deliver media
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	SendAlbum(to tele.Recipient, a tele.Album, opts ...interface{}) ([]tele.Message, error)
}

// MediaSender uploads local files to Telegram
type MediaSender struct {
	api     API
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewMediaSender creates a sender limited to perSecond outbound calls
func NewMediaSender(api API, perSecond float64, logger *zap.Logger) *MediaSender {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &MediaSender{
		api:     api,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger,
	}
}

// Send uploads one file. The file is open only for the duration of the call.
func (s *MediaSender) Send(ctx context.Context, chatID int64, item delivery.Item) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	f, err := os.Open(item.File.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", item.File.Path, err)
	}
	defer f.Close()

	s.logger.Debug("Uploading file",
		zap.Int64("chat_id", chatID),
		zap.String("path", item.File.Path),
		zap.String("method", item.Method.String()),
		zap.Int64("size", item.File.Size),
	)

	_, err = s.api.Send(tele.ChatID(chatID), media(item, tele.FromReader(f)))
	return mapError(err)
}

// SendGroup uploads photo and video items as one media group
func (s *MediaSender) SendGroup(ctx context.Context, chatID int64, items []delivery.Item) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	album := make(tele.Album, 0, len(items))
	for _, item := range items {
		f, err := os.Open(item.File.Path)
		if err != nil {
			return fmt.Errorf("open %s: %w", item.File.Path, err)
		}
		defer f.Close()

		in, ok := media(item, tele.FromReader(f)).(tele.Inputtable)
		if !ok {
			return fmt.Errorf("%s cannot be part of a media group", item.Method)
		}
		album = append(album, in)
	}

	_, err := s.api.SendAlbum(tele.ChatID(chatID), album)
	return mapError(err)
}

// media builds the telebot value for one item
func media(item delivery.Item, file tele.File) tele.Sendable {
	name := filepath.Base(item.File.Path)
	switch item.Method {
	case delivery.MethodPhoto:
		return &tele.Photo{File: file, Caption: item.Caption}
	case delivery.MethodVideo:
		return &tele.Video{File: file, Caption: item.Caption, FileName: name, Streaming: true}
	case delivery.MethodAudio:
		return &tele.Audio{File: file, Caption: item.Caption, FileName: name, Title: item.File.Title}
	default:
		return &tele.Document{File: file, Caption: item.Caption, FileName: name}
	}
}

// mapError tags the Telegram errors with a known category
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tele.ErrBlockedByUser),
		errors.Is(err, tele.ErrUserIsDeactivated),
		errors.Is(err, tele.ErrNotStartedByUser):
		return &domain.DeliveryError{Kind: domain.DeliveryBlocked, Err: err}
	case errors.Is(err, tele.ErrTooLarge):
		return &domain.DeliveryError{Kind: domain.DeliveryTooLarge, Err: err}
	default:
		return err
	}
}
