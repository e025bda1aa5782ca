package domain

// SettingForceSubscribe toggles mandatory channel membership
const SettingForceSubscribe = "force_subscribe_enabled"

// Setting is a key-value feature toggle
type Setting struct {
	Key   string
	Value string
}

// Enabled reports whether a setting value means "on"
func (s Setting) Enabled() bool {
	return s.Value == "true"
}

// LockedChannel is one mandatory-subscription requirement
type LockedChannel struct {
	ID        int64
	ChannelID string
	Name      string
	Link      string
	IsActive  bool
}
