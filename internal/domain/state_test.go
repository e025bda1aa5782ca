package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected State
	}{
		{name: "idle", raw: "idle", expected: Idle()},
		{name: "empty", raw: "", expected: Idle()},
		{name: "awaiting tiktok", raw: "awaiting_link:tiktok", expected: AwaitingLink(PlatformTikTok)},
		{name: "awaiting generic", raw: "awaiting_link:generic", expected: AwaitingLink(PlatformGeneric)},
		{name: "legacy form", raw: "waiting_for_link_instagram", expected: AwaitingLink(PlatformInstagram)},
		{name: "unknown platform", raw: "awaiting_link:myspace", expected: Idle()},
		{name: "garbage", raw: "something_else", expected: Idle()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseState(tt.raw))
		})
	}
}

func TestState_RoundTrip(t *testing.T) {
	for _, p := range Platforms {
		s := AwaitingLink(p)
		assert.Equal(t, s, ParseState(s.String()))
	}
	assert.Equal(t, "idle", Idle().String())
	assert.Equal(t, Idle(), ParseState(Idle().String()))
}

func TestState_AwaitedPlatform(t *testing.T) {
	p, ok := Idle().AwaitedPlatform()
	assert.False(t, ok)
	assert.Empty(t, p)
	assert.True(t, State{}.IsIdle())

	p, ok = AwaitingLink(PlatformYouTube).AwaitedPlatform()
	assert.True(t, ok)
	assert.Equal(t, PlatformYouTube, p)
	assert.False(t, AwaitingLink(PlatformYouTube).IsIdle())
}
