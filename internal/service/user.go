package service

import (
	"context"

	"go.uber.org/zap"

	"socialdl/internal/domain"
	"socialdl/internal/repository"
)

// UserObserver is notified when a user contacts the bot for the first time
type UserObserver interface {
	UserCreated(ctx context.Context, profile domain.Profile)
}

// UserService handles user identity and conversation state
type UserService struct {
	userRepo  repository.UserRepository
	observers []UserObserver
	logger    *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo repository.UserRepository, logger *zap.Logger, observers ...UserObserver) *UserService {
	return &UserService{
		userRepo:  userRepo,
		observers: observers,
		logger:    logger,
	}
}

// Touch creates or refreshes the user and returns its internal id.
// Observers are notified in the background when the user is new.
func (s *UserService) Touch(ctx context.Context, profile domain.Profile) (int64, error) {
	id, created, err := s.userRepo.UpsertUser(ctx, profile)
	if err != nil {
		return 0, err
	}

	if created {
		s.logger.Info("New user",
			zap.Int64("telegram_id", profile.TelegramID),
			zap.String("username", profile.Username),
		)
		for _, o := range s.observers {
			go s.notify(o, profile)
		}
	}

	return id, nil
}

func (s *UserService) notify(o UserObserver, profile domain.Profile) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("User observer panicked", zap.Any("panic", r))
		}
	}()
	o.UserCreated(context.Background(), profile)
}

// TakeState reads and resets the user state. Store failures yield Idle.
func (s *UserService) TakeState(ctx context.Context, telegramID int64) domain.State {
	state, err := s.userRepo.TakeState(ctx, telegramID)
	if err != nil {
		s.logger.Error("Failed to take state", zap.Int64("user_id", telegramID), zap.Error(err))
		return domain.Idle()
	}
	return state
}

// SetState stores the user's conversation state
func (s *UserService) SetState(ctx context.Context, telegramID int64, state domain.State) error {
	return s.userRepo.SetState(ctx, telegramID, state)
}

// ResetState sets the user back to idle
func (s *UserService) ResetState(ctx context.Context, telegramID int64) error {
	return s.userRepo.SetState(ctx, telegramID, domain.Idle())
}

// MarkBlocked records that the user has blocked the bot
func (s *UserService) MarkBlocked(ctx context.Context, telegramID int64) {
	if err := s.userRepo.SetBlocked(ctx, telegramID, true); err != nil {
		s.logger.Error("Failed to mark user blocked", zap.Int64("user_id", telegramID), zap.Error(err))
	}
}

// GetUser returns nil when the user is unknown
func (s *UserService) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	return s.userRepo.GetUser(ctx, telegramID)
}
