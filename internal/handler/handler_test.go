package handler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"socialdl/internal/delivery"
	"socialdl/internal/domain"
	"socialdl/internal/messages"
	"socialdl/internal/middleware"
	"socialdl/internal/service"
	"socialdl/internal/testutil"
)

const testUserID int64 = 1001

type fakeDownloader struct {
	mu     sync.Mutex
	result domain.DownloadResult
	urls   []string
}

func (f *fakeDownloader) Fetch(_ context.Context, url string, _ domain.QualityPolicy) domain.DownloadResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return f.result
}

type recordingSender struct {
	mu     sync.Mutex
	sent   []delivery.Item
	groups [][]delivery.Item
	fail   map[string]error
}

func (s *recordingSender) Send(_ context.Context, _ int64, item delivery.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, item)
	return s.fail[item.File.Path]
}

func (s *recordingSender) SendGroup(_ context.Context, _ int64, items []delivery.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = append(s.groups, items)
	return nil
}

type testEnv struct {
	store   *testutil.MemoryStore
	checker *testutil.MockMembershipChecker
	bot     *testutil.FakeMessenger
	fetch   *fakeDownloader
	sender  *recordingSender
	handler *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := testutil.NewMemoryStore()
	logger := testutil.NewTestLogger()
	checker := &testutil.MockMembershipChecker{}

	users := service.NewUserService(store, logger)
	settings := service.NewSettingsService(store, logger)
	gate := service.NewSubscriptionGate(settings, store, checker, logger)
	logs := service.NewDownloadLogService(store, store, logger)

	env := &testEnv{
		store:   store,
		checker: checker,
		bot:     &testutil.FakeMessenger{},
		fetch:   &fakeDownloader{},
		sender:  &recordingSender{fail: map[string]error{}},
	}
	env.handler = NewHandler(
		env.bot, users, settings, gate, logs,
		env.fetch, delivery.NewPipeline(env.sender, logger),
		domain.QualityBestOverall, logger,
	)

	_, _, err := store.UpsertUser(context.Background(), testutil.NewTestProfile(testUserID, "Ann"))
	require.NoError(t, err)
	return env
}

func (e *testEnv) setState(t *testing.T, state domain.State) {
	t.Helper()
	require.NoError(t, e.store.SetState(context.Background(), testUserID, state))
}

func (e *testEnv) state() domain.State {
	return e.store.User(testUserID).State
}

func (e *testEnv) requireChannel(t *testing.T, status string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.store.SetSetting(ctx, domain.SettingForceSubscribe, "true"))
	_, err := e.store.AddChannel(ctx, testutil.NewTestChannel(0, "@news"))
	require.NoError(t, err)
	e.checker.On("MemberStatus", mock.Anything, "@news", testUserID).Return(status, nil)
}

func tempMedia(t *testing.T, name string, kind domain.MediaKind, size int64) domain.MediaFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))
	return domain.MediaFile{Path: path, Size: size, Kind: kind, Title: name}
}

func TestStart_ResetsStateAndShowsMenu(t *testing.T) {
	env := newTestEnv(t)
	env.setState(t, domain.AwaitingLink(domain.PlatformYouTube))

	c := testutil.NewTextContext(testUserID, "/start")
	require.NoError(t, env.handler.gated(env.handler.handleStart)(c))

	assert.True(t, env.state().IsIdle())
	reply := c.Last()
	assert.Contains(t, reply.Text, "<b>Test</b>")
	require.NotNil(t, reply.Markup)
	assert.Len(t, reply.Markup.InlineKeyboard, len(domain.Platforms))
}

func TestMenu_ListsEnabledPlatformsOnly(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SetSetting(context.Background(), domain.PlatformTikTok.SettingKey(), "false"))

	c := testutil.NewTextContext(testUserID, "/menu")
	require.NoError(t, env.handler.gated(env.handler.handleMenu)(c))

	reply := c.Last()
	assert.Equal(t, messages.MenuPrompt, reply.Text)
	require.NotNil(t, reply.Markup)
	require.Len(t, reply.Markup.InlineKeyboard, len(domain.Platforms)-1)
	assert.Equal(t, messages.PlatformButton(domain.PlatformInstagram), reply.Markup.InlineKeyboard[0][0].Text)
}

func TestMenu_NoPlatforms(t *testing.T) {
	env := newTestEnv(t)
	for _, p := range domain.Platforms {
		require.NoError(t, env.store.SetSetting(context.Background(), p.SettingKey(), "false"))
	}

	c := testutil.NewTextContext(testUserID, "/menu")
	require.NoError(t, env.handler.gated(env.handler.handleMenu)(c))

	assert.Equal(t, messages.NoPlatforms, c.Last().Text)
}

func TestStart_UnmetSubscriptionKeepsState(t *testing.T) {
	env := newTestEnv(t)
	env.requireChannel(t, "left")
	env.setState(t, domain.AwaitingLink(domain.PlatformTikTok))

	c := testutil.NewTextContext(testUserID, "/start")
	require.NoError(t, env.handler.gated(env.handler.handleStart)(c))

	assert.Equal(t, domain.AwaitingLink(domain.PlatformTikTok), env.state())
	reply := c.Last()
	assert.Contains(t, reply.Text, messages.SubscribePrompt)
	require.NotNil(t, reply.Markup)
	// one join link plus the check button
	require.Len(t, reply.Markup.InlineKeyboard, 2)
	assert.Equal(t, "https://t.me/news", reply.Markup.InlineKeyboard[0][0].URL)
	env.checker.AssertExpectations(t)
}

func TestSelectPlatform_SetsAwaitingLink(t *testing.T) {
	env := newTestEnv(t)

	c := testutil.NewCallbackContext(testUserID, btnSelectPlatform.Unique, "instagram")
	require.NoError(t, env.handler.gated(env.handler.handleSelectPlatform)(c))

	assert.Equal(t, domain.AwaitingLink(domain.PlatformInstagram), env.state())
	reply := c.Last()
	assert.True(t, reply.Edited)
	assert.Equal(t, messages.LinkPrompt(domain.PlatformInstagram), reply.Text)
}

func TestSelectPlatform_DisabledLeavesState(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SetSetting(context.Background(), domain.PlatformX.SettingKey(), "false"))

	c := testutil.NewCallbackContext(testUserID, btnSelectPlatform.Unique, "x")
	require.NoError(t, env.handler.handleSelectPlatform(c))

	assert.True(t, env.state().IsIdle())
	require.Len(t, c.Responses, 1)
	assert.Equal(t, messages.PlatformDisabled(domain.PlatformX), c.Responses[0].Text)
	assert.Empty(t, c.Replies)
}

func TestCallback_LegacyPlatformData(t *testing.T) {
	env := newTestEnv(t)

	c := testutil.NewCallbackContext(testUserID, "", "download_youtube\n")
	require.NoError(t, env.handler.handleCallback(c))

	assert.Equal(t, domain.AwaitingLink(domain.PlatformYouTube), env.state())
}

func TestCheckSubscription(t *testing.T) {
	t.Run("satisfied shows menu", func(t *testing.T) {
		env := newTestEnv(t)
		env.requireChannel(t, "member")
		env.setState(t, domain.AwaitingLink(domain.PlatformX))

		c := testutil.NewCallbackContext(testUserID, btnCheckSubscription.Unique, "")
		require.NoError(t, env.handler.handleCheckSubscription(c))

		assert.True(t, env.state().IsIdle())
		reply := c.Last()
		assert.True(t, reply.Edited)
		assert.Equal(t, messages.MenuPrompt, reply.Text)
	})

	t.Run("still missing re-shows channels", func(t *testing.T) {
		env := newTestEnv(t)
		env.requireChannel(t, "left")

		c := testutil.NewCallbackContext(testUserID, btnCheckSubscription.Unique, "")
		require.NoError(t, env.handler.handleCallback(c))

		assert.Contains(t, c.Last().Text, "@news")
		require.Len(t, c.Responses, 1)
		assert.Equal(t, messages.NotSubscribedYet, c.Responses[0].Text)
	})
}

func TestText_InvalidURL(t *testing.T) {
	env := newTestEnv(t)
	env.setState(t, domain.AwaitingLink(domain.PlatformTikTok))

	c := testutil.NewTextContext(testUserID, "hello there")
	require.NoError(t, env.handler.handleText(c))

	assert.Equal(t, messages.InvalidURL, c.Last().Text)
	assert.Equal(t, domain.AwaitingLink(domain.PlatformTikTok), env.state())
	assert.Empty(t, env.store.Logs())
	assert.Empty(t, env.fetch.urls)
}

func TestText_DisabledPlatformCreatesNoLog(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.SetSetting(context.Background(), domain.PlatformTikTok.SettingKey(), "false"))

	c := testutil.NewTextContext(testUserID, "https://www.tiktok.com/@a/video/1")
	require.NoError(t, env.handler.gated(env.handler.handleText)(c))

	assert.Equal(t, messages.PlatformDisabled(domain.PlatformTikTok), c.Last().Text)
	assert.Empty(t, env.store.Logs())
	assert.Empty(t, env.fetch.urls)
}

func TestText_SingleFileDelivered(t *testing.T) {
	env := newTestEnv(t)
	env.setState(t, domain.AwaitingLink(domain.PlatformYouTube))
	file := tempMedia(t, "clip.mp4", domain.MediaVideo, 10*1024*1024)
	env.fetch.result = domain.SingleResult{File: file}

	c := testutil.NewTextContext(testUserID, "https://youtu.be/abc")
	c.Set(middleware.UserIDKey, int64(7))
	require.NoError(t, env.handler.handleText(c))

	assert.True(t, env.state().IsIdle())
	assert.Equal(t, []domain.DownloadStatus{
		domain.DownloadStatusPending,
		domain.DownloadStatusCompleted,
		domain.DownloadStatusFileSent,
	}, env.store.Statuses())
	for _, l := range env.store.Logs() {
		assert.Equal(t, int64(7), l.UserID)
		assert.Equal(t, domain.PlatformYouTube, l.Platform)
	}

	require.Len(t, env.sender.sent, 1)
	assert.Equal(t, delivery.MethodVideo, env.sender.sent[0].Method)
	assert.NoFileExists(t, file.Path)

	msgs := env.bot.Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, messages.Processing, msgs[0].Text)
	assert.True(t, msgs[1].Deleted)
}

func TestText_GenericStateSniffsPlatform(t *testing.T) {
	env := newTestEnv(t)
	env.setState(t, domain.AwaitingLink(domain.PlatformGeneric))
	env.fetch.result = domain.FailureResult{Message: "nothing"}

	c := testutil.NewTextContext(testUserID, "https://instagram.com/p/xyz")
	require.NoError(t, env.handler.handleText(c))

	logs := env.store.Logs()
	require.NotEmpty(t, logs)
	assert.Equal(t, domain.PlatformInstagram, logs[0].Platform)
}

func TestText_TooLargeNeverSends(t *testing.T) {
	env := newTestEnv(t)
	file := tempMedia(t, "huge.mp4", domain.MediaVideo, domain.MaxDocumentSize+512*1024*1024)
	env.fetch.result = domain.TooLargeResult{Items: []domain.MediaFile{file}}

	c := testutil.NewTextContext(testUserID, "https://example.com/huge")
	require.NoError(t, env.handler.handleText(c))

	assert.Equal(t, []domain.DownloadStatus{
		domain.DownloadStatusPending,
		domain.DownloadStatusTooLarge,
	}, env.store.Statuses())
	assert.Empty(t, env.sender.sent)
	assert.Empty(t, env.sender.groups)
	assert.NoFileExists(t, file.Path)

	msgs := env.bot.Snapshot()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Edited)
	assert.Equal(t, messages.TooLarge, msgs[1].Text)
}

func TestText_ExtractionFailure(t *testing.T) {
	env := newTestEnv(t)
	env.fetch.result = domain.FailureResult{Message: "private video"}

	c := testutil.NewTextContext(testUserID, "https://example.com/v")
	require.NoError(t, env.handler.handleText(c))

	logs := env.store.Logs()
	require.Len(t, logs, 2)
	assert.Equal(t, domain.DownloadStatusFailed, logs[1].Status)
	require.NotNil(t, logs[1].ErrorMessage)
	assert.Equal(t, "private video", *logs[1].ErrorMessage)

	msgs := env.bot.Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, messages.Failure("private video"), msgs[1].Text)
}

func TestText_AlbumPartialLogsEveryMissingItem(t *testing.T) {
	env := newTestEnv(t)
	photo := tempMedia(t, "1.jpg", domain.MediaImage, 1024)
	video := tempMedia(t, "2.mp4", domain.MediaVideo, 30*1024*1024)
	doc := tempMedia(t, "3.mp4", domain.MediaVideo, 1536*1024*1024)
	env.fetch.result = domain.AlbumResult{Items: []domain.MediaFile{photo, video, doc}}
	env.sender.fail[doc.Path] = errors.New("Bad Request: wrong file identifier")

	c := testutil.NewTextContext(testUserID, "https://instagram.com/p/1")
	require.NoError(t, env.handler.handleText(c))

	assert.Equal(t, []domain.DownloadStatus{
		domain.DownloadStatusPending,
		domain.DownloadStatusAlbum,
		domain.DownloadStatusFileSent,
		domain.DownloadStatusFailed,
	}, env.store.Statuses())

	failed := env.store.Logs()[3]
	require.NotNil(t, failed.FilePath)
	assert.Equal(t, doc.Path, *failed.FilePath)

	require.Len(t, env.sender.groups, 1)
	assert.Len(t, env.sender.groups[0], 2)
	for _, f := range []domain.MediaFile{photo, video, doc} {
		assert.NoFileExists(t, f.Path)
	}

	msgs := env.bot.Snapshot()
	assert.Equal(t, messages.AlbumPartial(2, 3), msgs[len(msgs)-1].Text)
}

func TestText_BlockedUserIsFlagged(t *testing.T) {
	env := newTestEnv(t)
	file := tempMedia(t, "a.jpg", domain.MediaImage, 1024)
	env.fetch.result = domain.SingleResult{File: file}
	env.sender.fail[file.Path] = errors.New("telebot: Forbidden: bot was blocked by the user")

	c := testutil.NewTextContext(testUserID, "https://x.com/a/status/1")
	require.NoError(t, env.handler.handleText(c))

	assert.True(t, env.store.User(testUserID).IsBlocked)
	assert.Equal(t, domain.DownloadStatusFailed, env.store.Statuses()[2])
	assert.Len(t, env.bot.Snapshot(), 1)
}

func TestText_StoreOutageFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	env.fetch.result = domain.SingleResult{File: tempMedia(t, "a.jpg", domain.MediaImage, 1024)}
	env.store.Err = errors.New("connection refused")

	c := testutil.NewTextContext(testUserID, "https://example.com/a.jpg")
	require.NoError(t, env.handler.handleText(c))

	// unreadable toggles count as disabled
	assert.Equal(t, messages.PlatformDisabled(domain.PlatformGeneric), c.Last().Text)
	assert.Empty(t, env.fetch.urls)
}

func TestValidateLink(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"https://youtu.be/abc", true},
		{"http://EXAMPLE.COM/x", true},
		{"HTTP://example.com/x", false},
		{"Https://example.com/x", false},
		{"ftp://example.com", false},
		{"youtube.com/watch?v=1", false},
		{"https://", false},
		{"just text", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := validateLink(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidURL)
			}
		})
	}
}

func TestResolvePlatform(t *testing.T) {
	tests := []struct {
		name     string
		state    domain.State
		link     string
		expected domain.Platform
	}{
		{"awaited platform wins", domain.AwaitingLink(domain.PlatformTikTok), "https://youtube.com/watch?v=1", domain.PlatformTikTok},
		{"idle sniffs", domain.Idle(), "https://youtube.com/watch?v=1", domain.PlatformYouTube},
		{"generic sniffs", domain.AwaitingLink(domain.PlatformGeneric), "https://twitter.com/a", domain.PlatformX},
		{"unknown host is generic", domain.Idle(), "https://vimeo.com/1", domain.PlatformGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolvePlatform(tt.state, tt.link))
		})
	}
}
