package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"socialdl/internal/domain"
)

// MemoryStore is an in-memory implementation of every repository
type MemoryStore struct {
	mu       sync.Mutex
	users    map[int64]*domain.User
	logs     []domain.DownloadLogEntry
	settings map[string]string
	channels []domain.LockedChannel
	admins   []domain.AdminUser
	nextID   int64

	// Err, when set, is returned by every method
	Err error
}

// NewMemoryStore returns a store with every platform enabled and force
// subscription switched off
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:    make(map[int64]*domain.User),
		settings: map[string]string{domain.SettingForceSubscribe: "false"},
	}
	for _, p := range domain.Platforms {
		s.settings[p.SettingKey()] = "true"
	}
	return s
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *MemoryStore) fail(op string) error {
	if s.Err != nil {
		return &domain.StoreError{Op: op, Err: s.Err}
	}
	return nil
}

// Logs returns a copy of the download log
func (s *MemoryStore) Logs() []domain.DownloadLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DownloadLogEntry(nil), s.logs...)
}

// Statuses returns the status of every log row in insertion order
func (s *MemoryStore) Statuses() []domain.DownloadStatus {
	var out []domain.DownloadStatus
	for _, l := range s.Logs() {
		out = append(out, l.Status)
	}
	return out
}

// User returns a copy of the stored user or nil
func (s *MemoryStore) User(telegramID int64) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[telegramID]
	if !ok {
		return nil
	}
	c := *u
	return &c
}

func (s *MemoryStore) GetUser(_ context.Context, telegramID int64) (*domain.User, error) {
	if err := s.fail("get user"); err != nil {
		return nil, err
	}
	return s.User(telegramID), nil
}

func (s *MemoryStore) UpsertUser(_ context.Context, p domain.Profile) (int64, bool, error) {
	if err := s.fail("upsert user"); err != nil {
		return 0, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	u, ok := s.users[p.TelegramID]
	if !ok {
		u = &domain.User{ID: s.id(), TelegramID: p.TelegramID, CreatedAt: now}
		s.users[p.TelegramID] = u
	}
	u.FirstName = p.FirstName
	u.LastName = p.LastName
	u.Username = p.Username
	u.LanguageCode = p.LanguageCode
	u.IsBot = p.IsBot
	u.IsBlocked = false
	u.LastActivity = now
	return u.ID, !ok, nil
}

func (s *MemoryStore) SetState(_ context.Context, telegramID int64, state domain.State) error {
	if err := s.fail("set state"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[telegramID]
	if !ok {
		return &domain.StoreError{Op: "set state", Err: domain.ErrNotFound}
	}
	u.State = state
	return nil
}

func (s *MemoryStore) TakeState(_ context.Context, telegramID int64) (domain.State, error) {
	if err := s.fail("take state"); err != nil {
		return domain.Idle(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[telegramID]
	if !ok {
		return domain.Idle(), nil
	}
	state := u.State
	u.State = domain.Idle()
	return state, nil
}

func (s *MemoryStore) SetBlocked(_ context.Context, telegramID int64, blocked bool) error {
	if err := s.fail("set blocked"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[telegramID]
	if !ok {
		return &domain.StoreError{Op: "set blocked", Err: domain.ErrNotFound}
	}
	u.IsBlocked = blocked
	return nil
}

func (s *MemoryStore) CountUsers(_ context.Context) (int, error) {
	if err := s.fail("count users"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *MemoryStore) AppendLog(_ context.Context, entry domain.DownloadLogEntry) (int64, error) {
	if err := s.fail("append log"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.id()
	entry.CreatedAt = time.Now()
	s.logs = append(s.logs, entry)
	return entry.ID, nil
}

func (s *MemoryStore) RecentLogs(_ context.Context, limit int) ([]domain.DownloadLogEntry, error) {
	if err := s.fail("recent logs"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.DownloadLogEntry
	for i := len(s.logs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.logs[i])
	}
	return out, nil
}

func (s *MemoryStore) CountByStatus(_ context.Context) (map[domain.DownloadStatus]int, error) {
	if err := s.fail("count downloads"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.DownloadStatus]int)
	for _, l := range s.logs {
		counts[l.Status]++
	}
	return counts, nil
}

func (s *MemoryStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	if err := s.fail("prune logs"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.logs[:0]
	var n int64
	for _, l := range s.logs {
		if l.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	s.logs = kept
	return n, nil
}

func (s *MemoryStore) GetSetting(_ context.Context, key string) (string, bool, error) {
	if err := s.fail("get setting"); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.settings[key]
	return v, ok, nil
}

func (s *MemoryStore) SetSetting(_ context.Context, key, value string) error {
	if err := s.fail("set setting"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
	return nil
}

func (s *MemoryStore) ListSettings(_ context.Context) ([]domain.Setting, error) {
	if err := s.fail("list settings"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Setting, 0, len(s.settings))
	for k, v := range s.settings {
		out = append(out, domain.Setting{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemoryStore) ListChannels(_ context.Context, activeOnly bool) ([]domain.LockedChannel, error) {
	if err := s.fail("list channels"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LockedChannel
	for _, ch := range s.channels {
		if ch.IsActive || !activeOnly {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (s *MemoryStore) AddChannel(_ context.Context, ch domain.LockedChannel) (int64, error) {
	if err := s.fail("add channel"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ch.ID = s.id()
	s.channels = append(s.channels, ch)
	return ch.ID, nil
}

func (s *MemoryStore) SetChannelActive(_ context.Context, id int64, active bool) error {
	if err := s.fail("set channel active"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.channels {
		if s.channels[i].ID == id {
			s.channels[i].IsActive = active
			return nil
		}
	}
	return &domain.StoreError{Op: "set channel active", Err: domain.ErrNotFound}
}

func (s *MemoryStore) RemoveChannel(_ context.Context, id int64) error {
	if err := s.fail("remove channel"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.channels {
		if s.channels[i].ID == id {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			return nil
		}
	}
	return &domain.StoreError{Op: "remove channel", Err: domain.ErrNotFound}
}

func (s *MemoryStore) GetAdminByUsername(_ context.Context, username string) (*domain.AdminUser, error) {
	if err := s.fail("get admin"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Username == username {
			c := a
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) CreateAdmin(_ context.Context, admin domain.AdminUser) (int64, error) {
	if err := s.fail("create admin"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	admin.ID = s.id()
	admin.CreatedAt = time.Now()
	s.admins = append(s.admins, admin)
	return admin.ID, nil
}

func (s *MemoryStore) ListAdmins(_ context.Context) ([]domain.AdminUser, error) {
	if err := s.fail("list admins"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AdminUser(nil), s.admins...), nil
}

func (s *MemoryStore) DeleteAdmin(_ context.Context, id int64) error {
	if err := s.fail("delete admin"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.admins {
		if s.admins[i].ID == id {
			s.admins = append(s.admins[:i], s.admins[i+1:]...)
			return nil
		}
	}
	return &domain.StoreError{Op: "delete admin", Err: domain.ErrNotFound}
}
