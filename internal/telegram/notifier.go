package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"socialdl/internal/domain"
	"socialdl/internal/messages"
)

const notifyTimeout = 5 * time.Second

// Poster is the subset of *tele.Bot used to post text
type Poster interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// AdminNotifier tells admins about first-time users
type AdminNotifier struct {
	api      Poster
	adminIDs []int64
	logger   *zap.Logger
}

// NewAdminNotifier creates a new admin notifier
func NewAdminNotifier(api Poster, adminIDs []int64, logger *zap.Logger) *AdminNotifier {
	return &AdminNotifier{api: api, adminIDs: adminIDs, logger: logger}
}

// UserCreated sends a notice to every admin unless the new user is an admin
func (n *AdminNotifier) UserCreated(ctx context.Context, profile domain.Profile) {
	for _, id := range n.adminIDs {
		if id == profile.TelegramID {
			return
		}
	}

	text := messages.NewUserNotice(profile)
	for _, id := range n.adminIDs {
		if err := n.post(ctx, id, text); err != nil {
			n.logger.Warn("Failed to notify admin",
				zap.Int64("admin_id", id),
				zap.Int64("user_id", profile.TelegramID),
				zap.Error(err),
			)
		}
	}
}

// post sends text but gives up waiting after notifyTimeout
func (n *AdminNotifier) post(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := n.api.Send(tele.ChatID(chatID), text, tele.ModeHTML)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
