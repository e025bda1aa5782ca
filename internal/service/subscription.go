package service

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"socialdl/internal/domain"
	"socialdl/internal/repository"
)

// maxParallelMembershipChecks bounds concurrent getChatMember calls per check
const maxParallelMembershipChecks = 4

// MembershipChecker looks up a user's status in a channel
type MembershipChecker interface {
	MemberStatus(ctx context.Context, channelID string, userID int64) (string, error)
}

// SubscriptionGate decides whether a user satisfies every mandatory channel subscription
type SubscriptionGate struct {
	settings    *SettingsService
	channelRepo repository.ChannelRepository
	checker     MembershipChecker
	logger      *zap.Logger
}

// NewSubscriptionGate creates a new subscription gate
func NewSubscriptionGate(
	settings *SettingsService,
	channelRepo repository.ChannelRepository,
	checker MembershipChecker,
	logger *zap.Logger,
) *SubscriptionGate {
	return &SubscriptionGate{
		settings:    settings,
		channelRepo: channelRepo,
		checker:     checker,
		logger:      logger,
	}
}

// Check returns whether the user may use the bot and the channels they still have to join
func (g *SubscriptionGate) Check(ctx context.Context, userID int64) (bool, []domain.LockedChannel) {
	if !g.settings.ForceSubscribeEnabled(ctx) {
		return true, nil
	}

	channels, err := g.channelRepo.ListChannels(ctx, true)
	if err != nil {
		g.logger.Error("Failed to list locked channels", zap.Error(err))
		return true, nil
	}
	if len(channels) == 0 {
		return true, nil
	}

	joined := make([]bool, len(channels))

	var eg errgroup.Group
	eg.SetLimit(maxParallelMembershipChecks)
	for i, ch := range channels {
		eg.Go(func() error {
			joined[i] = g.isMember(ctx, ch, userID)
			return nil
		})
	}
	_ = eg.Wait()

	var unmet []domain.LockedChannel
	for i, ch := range channels {
		if !joined[i] {
			unmet = append(unmet, ch)
		}
	}

	return len(unmet) == 0, unmet
}

// isMember fails closed: a lookup error counts as not subscribed
func (g *SubscriptionGate) isMember(ctx context.Context, ch domain.LockedChannel, userID int64) bool {
	status, err := g.checker.MemberStatus(ctx, ch.ChannelID, userID)
	if err != nil {
		g.logger.Warn("Membership lookup failed",
			zap.String("channel_id", ch.ChannelID),
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return false
	}

	switch status {
	case "member", "administrator", "creator":
		return true
	default:
		return false
	}
}
