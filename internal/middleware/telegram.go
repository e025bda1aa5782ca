package middleware

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"socialdl/internal/domain"
	"socialdl/internal/service"
)

// UserIDKey is the context key holding the internal user id
const UserIDKey = "user_db_id"

// TrackUser creates or refreshes the sender on every update
func TrackUser(users *service.UserService, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			if sender == nil {
				return next(c)
			}

			id, err := users.Touch(context.Background(), ProfileOf(sender))
			if err != nil {
				// Keep serving; the user row is retried on the next update
				logger.Error("Failed to track user", zap.Int64("user_id", sender.ID), zap.Error(err))
			} else {
				c.Set(UserIDKey, id)
			}

			return next(c)
		}
	}
}

// ProfileOf converts a Telegram user into a profile
func ProfileOf(u *tele.User) domain.Profile {
	return domain.Profile{
		TelegramID:   u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		LanguageCode: u.LanguageCode,
		IsBot:        u.IsBot,
	}
}
