package telegram

import (
	"context"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"
)

// MemberLookup is the subset of *tele.Bot used to read channel membership
type MemberLookup interface {
	ChatMemberOf(chat, user tele.Recipient) (*tele.ChatMember, error)
}

// channel addresses a chat by @username or numeric id
type channel string

func (c channel) Recipient() string {
	id := strings.TrimSpace(string(c))
	if _, err := strconv.ParseInt(id, 10, 64); err == nil || strings.HasPrefix(id, "@") {
		return id
	}
	return "@" + id
}

// MembershipChecker reads a user's status in a channel
type MembershipChecker struct {
	api MemberLookup
}

// NewMembershipChecker creates a new membership checker
func NewMembershipChecker(api MemberLookup) *MembershipChecker {
	return &MembershipChecker{api: api}
}

// MemberStatus returns the user's role in the channel (member, left, kicked, ...)
func (m *MembershipChecker) MemberStatus(ctx context.Context, channelID string, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	member, err := m.api.ChatMemberOf(channel(channelID), &tele.User{ID: userID})
	if err != nil {
		return "", err
	}
	return string(member.Role), nil
}
