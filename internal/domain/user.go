package domain

import "time"

// User represents a bot user
type User struct {
	ID           int64
	TelegramID   int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
	IsBot        bool
	State        State
	IsBlocked    bool
	CreatedAt    time.Time
	LastActivity time.Time
}

// Profile holds the mutable profile fields refreshed on every inbound event
type Profile struct {
	TelegramID   int64
	FirstName    string
	LastName     string
	Username     string
	LanguageCode string
	IsBot        bool
}

// FullName returns first and last name joined by a space
func (p Profile) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	if p.FirstName == "" {
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}

// AdminUser is an operator of the admin API
type AdminUser struct {
	ID             int64
	Username       string
	PasswordHash   string
	IsSuperAdmin   bool
	TelegramUserID *int64
	CreatedAt      time.Time
}
