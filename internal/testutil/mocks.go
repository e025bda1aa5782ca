package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"socialdl/internal/domain"
)

// MockUserRepository is a mock for UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetUser(ctx context.Context, telegramID int64) (*domain.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpsertUser(ctx context.Context, profile domain.Profile) (int64, bool, error) {
	args := m.Called(ctx, profile)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) SetState(ctx context.Context, telegramID int64, state domain.State) error {
	args := m.Called(ctx, telegramID, state)
	return args.Error(0)
}

func (m *MockUserRepository) TakeState(ctx context.Context, telegramID int64) (domain.State, error) {
	args := m.Called(ctx, telegramID)
	return args.Get(0).(domain.State), args.Error(1)
}

func (m *MockUserRepository) SetBlocked(ctx context.Context, telegramID int64, blocked bool) error {
	args := m.Called(ctx, telegramID, blocked)
	return args.Error(0)
}

func (m *MockUserRepository) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockDownloadRepository is a mock for DownloadRepository
type MockDownloadRepository struct {
	mock.Mock
}

func (m *MockDownloadRepository) AppendLog(ctx context.Context, entry domain.DownloadLogEntry) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDownloadRepository) RecentLogs(ctx context.Context, limit int) ([]domain.DownloadLogEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DownloadLogEntry), args.Error(1)
}

func (m *MockDownloadRepository) CountByStatus(ctx context.Context) (map[domain.DownloadStatus]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.DownloadStatus]int), args.Error(1)
}

func (m *MockDownloadRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockSettingRepository is a mock for SettingRepository
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) GetSetting(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockSettingRepository) SetSetting(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockSettingRepository) ListSettings(ctx context.Context) ([]domain.Setting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Setting), args.Error(1)
}

// MockChannelRepository is a mock for ChannelRepository
type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) ListChannels(ctx context.Context, activeOnly bool) ([]domain.LockedChannel, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LockedChannel), args.Error(1)
}

func (m *MockChannelRepository) AddChannel(ctx context.Context, channel domain.LockedChannel) (int64, error) {
	args := m.Called(ctx, channel)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChannelRepository) SetChannelActive(ctx context.Context, id int64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockChannelRepository) RemoveChannel(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAdminRepository is a mock for AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) GetAdminByUsername(ctx context.Context, username string) (*domain.AdminUser, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AdminUser), args.Error(1)
}

func (m *MockAdminRepository) CreateAdmin(ctx context.Context, admin domain.AdminUser) (int64, error) {
	args := m.Called(ctx, admin)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAdminRepository) ListAdmins(ctx context.Context) ([]domain.AdminUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AdminUser), args.Error(1)
}

func (m *MockAdminRepository) DeleteAdmin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMembershipChecker is a mock for service.MembershipChecker
type MockMembershipChecker struct {
	mock.Mock
}

func (m *MockMembershipChecker) MemberStatus(ctx context.Context, channelID string, userID int64) (string, error) {
	args := m.Called(ctx, channelID, userID)
	return args.String(0), args.Error(1)
}
