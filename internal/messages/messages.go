package messages

import (
	"fmt"
	"html"
	"strings"

	"socialdl/internal/domain"
)

// Static texts shown to users
const (
	MenuPrompt       = "📥 Choose where you want to download from:"
	NoPlatforms      = "Downloads are temporarily unavailable. Please check back later."
	SubscribePrompt  = "🔒 To use this bot, please join the channels below and then press the check button."
	NotSubscribedYet = "You haven't joined all the required channels yet."
	InvalidURL       = "That doesn't look like a link. Please send a URL starting with http:// or https://."
	Processing       = "⏳ Processing your link, please wait…"
	TooLarge         = "❌ This file is larger than 2 GB and can't be sent through Telegram."
	SendFailed       = "❌ Something went wrong while sending the file. Please try again later."
	SendTooLarge     = "❌ Telegram refused the file because it is too large."
	GenericError     = "Something went wrong. Please try again later."

	BtnCheckSubscription = "✅ I've joined"
	BtnJoinChannel       = "📢 Join %s"
)

// Welcome greets a user on /start
func Welcome(firstName string) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(
		"👋 Hi <b>%s</b>!\n\nI can download videos, photos and audio from social networks. %s",
		html.EscapeString(name), MenuPrompt,
	)
}

// PlatformButton is the menu label of a platform
func PlatformButton(p domain.Platform) string {
	switch p {
	case domain.PlatformTikTok:
		return "🎵 TikTok"
	case domain.PlatformInstagram:
		return "📸 Instagram"
	case domain.PlatformYouTube:
		return "▶️ YouTube"
	case domain.PlatformX:
		return "𝕏 X (Twitter)"
	default:
		return "🌐 Other sites"
	}
}

// LinkPrompt asks for a link of platform p
func LinkPrompt(p domain.Platform) string {
	if p == domain.PlatformGeneric {
		return "🔗 Send me a link from any supported site."
	}
	return fmt.Sprintf("🔗 Send me a %s link.", p.DisplayName())
}

// PlatformDisabled tells the user downloads from p are switched off
func PlatformDisabled(p domain.Platform) string {
	return fmt.Sprintf("🚫 Downloads from %s are currently disabled.", p.DisplayName())
}

// Subscribe lists the channels the user still has to join
func Subscribe(channels []domain.LockedChannel) string {
	var b strings.Builder
	b.WriteString(SubscribePrompt)
	b.WriteString("\n")
	for _, ch := range channels {
		b.WriteString("\n• ")
		b.WriteString(html.EscapeString(ChannelName(ch)))
	}
	return b.String()
}

// ChannelName returns the display name of a channel
func ChannelName(ch domain.LockedChannel) string {
	if ch.Name != "" {
		return ch.Name
	}
	return ch.ChannelID
}

// ChannelLink returns a join link for a channel
func ChannelLink(ch domain.LockedChannel) string {
	if ch.Link != "" {
		return ch.Link
	}
	if strings.HasPrefix(ch.ChannelID, "@") {
		return "https://t.me/" + strings.TrimPrefix(ch.ChannelID, "@")
	}
	return ""
}

// Failure renders the message for a download that produced nothing
func Failure(reason string) string {
	return "❌ " + html.EscapeString(reason)
}

// DeliveryFailure renders the message for a failed send. Only Telegram's own
// rejection text is shown to the user.
func DeliveryFailure(de *domain.DeliveryError) string {
	if de == nil {
		return SendFailed
	}
	switch de.Kind {
	case domain.DeliveryTooLarge:
		return SendTooLarge
	case domain.DeliveryRejected:
		return fmt.Sprintf("❌ Telegram rejected the file: <i>%s</i>", html.EscapeString(platformReason(de)))
	default:
		return SendFailed
	}
}

// AlbumPartial reports how many album items reached the chat
func AlbumPartial(sent, total int) string {
	return fmt.Sprintf("⚠️ Sent %d of %d files. The rest could not be delivered.", sent, total)
}

// NewUserNotice is sent to admins when someone uses the bot for the first time
func NewUserNotice(p domain.Profile) string {
	username := "n/a"
	if p.Username != "" {
		username = "@" + p.Username
	}
	return fmt.Sprintf(
		"🆕 <b>New user</b>\n\nName: %s\nUsername: %s\nID: <code>%d</code>",
		html.EscapeString(p.FullName()), html.EscapeString(username), p.TelegramID,
	)
}

// platformReason strips the client prefix from a Telegram error description
func platformReason(de *domain.DeliveryError) string {
	if de.Err == nil {
		return "unknown reason"
	}
	msg := de.Err.Error()
	msg = strings.TrimPrefix(msg, "telebot: ")
	msg = strings.TrimPrefix(msg, "telegram: ")
	return msg
}
