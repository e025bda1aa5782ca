package testutil

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"socialdl/internal/domain"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestProfile creates a test profile
func NewTestProfile(telegramID int64, firstName string) domain.Profile {
	return domain.Profile{
		TelegramID:   telegramID,
		FirstName:    firstName,
		Username:     "user" + firstName,
		LanguageCode: "en",
	}
}

// NewTestUser creates a test user in the given state
func NewTestUser(id, telegramID int64, state domain.State) *domain.User {
	now := time.Now()
	return &domain.User{
		ID:           id,
		TelegramID:   telegramID,
		FirstName:    "Test",
		State:        state,
		CreatedAt:    now,
		LastActivity: now,
	}
}

// NewTestChannel creates an active locked channel
func NewTestChannel(id int64, channelID string) domain.LockedChannel {
	return domain.LockedChannel{
		ID:        id,
		ChannelID: channelID,
		Name:      channelID,
		Link:      "https://t.me/" + strings.TrimPrefix(channelID, "@"),
		IsActive:  true,
	}
}
