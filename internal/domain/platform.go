package domain

import "strings"

// Platform is a source of media the bot knows how to ask for
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformX         Platform = "x"
	PlatformGeneric   Platform = "generic"
)

// Platforms lists every platform in menu order
var Platforms = []Platform{
	PlatformTikTok,
	PlatformInstagram,
	PlatformYouTube,
	PlatformX,
	PlatformGeneric,
}

// domain substrings checked in order; first match wins
var platformDomains = []struct {
	platform Platform
	needles  []string
}{
	{PlatformTikTok, []string{"tiktok.com"}},
	{PlatformInstagram, []string{"instagram.com"}},
	{PlatformYouTube, []string{"youtube.com", "youtu.be"}},
	{PlatformX, []string{"x.com", "twitter.com"}},
}

// ParsePlatform converts a platform name into a Platform
func ParsePlatform(name string) (Platform, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range Platforms {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// DetectPlatform classifies a URL by substring match against known domains
func DetectPlatform(rawURL string) Platform {
	lower := strings.ToLower(rawURL)
	for _, d := range platformDomains {
		for _, needle := range d.needles {
			if strings.Contains(lower, needle) {
				return d.platform
			}
		}
	}
	return PlatformGeneric
}

// SettingKey returns the feature flag key that enables the platform
func (p Platform) SettingKey() string {
	return "button_" + string(p) + "_enabled"
}

// DisplayName returns a human-friendly platform name
func (p Platform) DisplayName() string {
	switch p {
	case PlatformTikTok:
		return "TikTok"
	case PlatformInstagram:
		return "Instagram"
	case PlatformYouTube:
		return "YouTube"
	case PlatformX:
		return "X"
	default:
		return "other sites"
	}
}
