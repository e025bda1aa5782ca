package domain

import "strings"

const (
	stateIdle            = "idle"
	stateAwaitingPrefix  = "awaiting_link:"
	legacyAwaitingPrefix = "waiting_for_link_"
)

// State is the conversation state of a user: either Idle or AwaitingLink(platform).
// The zero value is Idle.
type State struct {
	awaiting bool
	platform Platform
}

// Idle returns the idle state
func Idle() State {
	return State{}
}

// AwaitingLink returns the state in which the bot expects a link for platform p
func AwaitingLink(p Platform) State {
	return State{awaiting: true, platform: p}
}

// IsIdle reports whether the state is Idle
func (s State) IsIdle() bool {
	return !s.awaiting
}

// AwaitedPlatform returns the platform a link is expected for
func (s State) AwaitedPlatform() (Platform, bool) {
	if !s.awaiting {
		return "", false
	}
	return s.platform, true
}

// String returns the persisted form of the state
func (s State) String() string {
	if !s.awaiting {
		return stateIdle
	}
	return stateAwaitingPrefix + string(s.platform)
}

// ParseState decodes a persisted state. Unknown values decode to Idle.
func ParseState(raw string) State {
	raw = strings.TrimSpace(raw)

	var name string
	switch {
	case strings.HasPrefix(raw, stateAwaitingPrefix):
		name = strings.TrimPrefix(raw, stateAwaitingPrefix)
	case strings.HasPrefix(raw, legacyAwaitingPrefix):
		name = strings.TrimPrefix(raw, legacyAwaitingPrefix)
	default:
		return Idle()
	}

	p, ok := ParsePlatform(name)
	if !ok {
		return Idle()
	}
	return AwaitingLink(p)
}
