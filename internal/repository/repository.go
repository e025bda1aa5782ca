package repository

import (
	"context"
	"time"

	"socialdl/internal/domain"
)

// UserRepository defines user and conversation state operations
type UserRepository interface {
	GetUser(ctx context.Context, telegramID int64) (*domain.User, error)
	// UpsertUser returns the internal id and whether the row was just created
	UpsertUser(ctx context.Context, profile domain.Profile) (int64, bool, error)
	SetState(ctx context.Context, telegramID int64, state domain.State) error
	// TakeState returns the current state and resets it to idle in one statement
	TakeState(ctx context.Context, telegramID int64) (domain.State, error)
	SetBlocked(ctx context.Context, telegramID int64, blocked bool) error
	CountUsers(ctx context.Context) (int, error)
}

// DownloadRepository defines the append-only download log
type DownloadRepository interface {
	AppendLog(ctx context.Context, entry domain.DownloadLogEntry) (int64, error)
	RecentLogs(ctx context.Context, limit int) ([]domain.DownloadLogEntry, error)
	CountByStatus(ctx context.Context) (map[domain.DownloadStatus]int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SettingRepository defines feature toggle storage
type SettingRepository interface {
	// GetSetting returns ok=false when the key does not exist
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
	ListSettings(ctx context.Context) ([]domain.Setting, error)
}

// ChannelRepository defines mandatory subscription channel storage
type ChannelRepository interface {
	ListChannels(ctx context.Context, activeOnly bool) ([]domain.LockedChannel, error)
	AddChannel(ctx context.Context, channel domain.LockedChannel) (int64, error)
	SetChannelActive(ctx context.Context, id int64, active bool) error
	RemoveChannel(ctx context.Context, id int64) error
}

// AdminRepository defines admin API account storage
type AdminRepository interface {
	GetAdminByUsername(ctx context.Context, username string) (*domain.AdminUser, error)
	CreateAdmin(ctx context.Context, admin domain.AdminUser) (int64, error)
	ListAdmins(ctx context.Context) ([]domain.AdminUser, error)
	DeleteAdmin(ctx context.Context, id int64) error
}
