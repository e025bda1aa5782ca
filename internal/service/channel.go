package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"socialdl/internal/domain"
	"socialdl/internal/repository"
)

// ErrInvalidChannel is returned when a channel lacks an id, name or link
var ErrInvalidChannel = errors.New("channel id, name and link are required")

// ChannelService manages mandatory subscription channels
type ChannelService struct {
	channelRepo repository.ChannelRepository
	logger      *zap.Logger
}

// NewChannelService creates a new channel service
func NewChannelService(channelRepo repository.ChannelRepository, logger *zap.Logger) *ChannelService {
	return &ChannelService{
		channelRepo: channelRepo,
		logger:      logger,
	}
}

// List returns all channels, or only the active ones
func (s *ChannelService) List(ctx context.Context, activeOnly bool) ([]domain.LockedChannel, error) {
	return s.channelRepo.ListChannels(ctx, activeOnly)
}

// Add validates and stores a new channel requirement
func (s *ChannelService) Add(ctx context.Context, ch domain.LockedChannel) (domain.LockedChannel, error) {
	ch.ChannelID = strings.TrimSpace(ch.ChannelID)
	ch.Name = strings.TrimSpace(ch.Name)
	ch.Link = strings.TrimSpace(ch.Link)
	if ch.ChannelID == "" || ch.Name == "" || ch.Link == "" {
		return domain.LockedChannel{}, ErrInvalidChannel
	}

	// Public channels are addressed by @username
	if !strings.HasPrefix(ch.ChannelID, "@") && !strings.HasPrefix(ch.ChannelID, "-") {
		ch.ChannelID = "@" + ch.ChannelID
	}

	id, err := s.channelRepo.AddChannel(ctx, ch)
	if err != nil {
		return domain.LockedChannel{}, err
	}
	ch.ID = id

	s.logger.Info("Locked channel added", zap.Int64("id", id), zap.String("channel_id", ch.ChannelID))
	return ch, nil
}

// SetActive enables or disables a channel requirement
func (s *ChannelService) SetActive(ctx context.Context, id int64, active bool) error {
	return s.channelRepo.SetChannelActive(ctx, id, active)
}

// Remove deletes a channel requirement
func (s *ChannelService) Remove(ctx context.Context, id int64) error {
	if err := s.channelRepo.RemoveChannel(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Locked channel removed", zap.Int64("id", id))
	return nil
}
