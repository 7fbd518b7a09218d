package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dafhistory/daf-history-bot/internal/models"
	"github.com/dafhistory/daf-history-bot/internal/ratelimit"
	"github.com/dafhistory/daf-history-bot/internal/state"
	"github.com/dafhistory/daf-history-bot/pkg/config"
)

const (
	testChatID   = int64(999)
	testUserID   = int64(100)
	testUserChat = int64(200)
)

type fakeTelegram struct {
	updates []tgbotapi.Update
	offsets []int
	sent    []tgbotapi.Chattable
	getErr  error
	sendErr error
}

func (f *fakeTelegram) GetUpdates(cfg tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.offsets = append(f.offsets, cfg.Offset)
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.updates, nil
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

type fakeResolver struct {
	ref   models.DafReference
	errs  []error
	calls int
}

func (f *fakeResolver) ResolveToday(ctx context.Context) (models.DafReference, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return models.DafReference{}, err
		}
	}
	return f.ref, nil
}

type fakeFinder struct {
	video models.VideoInfo
	err   error
	calls int
}

func (f *fakeFinder) FindVideo(ctx context.Context, ref models.DafReference) (models.VideoInfo, error) {
	f.calls++
	if f.err != nil {
		return models.VideoInfo{}, f.err
	}
	return f.video, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Telegram: config.TelegramConfig{Token: "token", ChatID: testChatID},
		Schedule: config.ScheduleConfig{
			Hour: 6, Minute: 0, Timezone: "UTC",
			WindowBeforeMinutes: 15, WindowAfterMinutes: 45,
		},
		RateLimit: config.RateLimitConfig{MaxRequests: 5, WindowSeconds: 60},
		Retry:     config.RetryConfig{MaxAttempts: 2},
	}
}

type testEnv struct {
	bot      *Bot
	api      *fakeTelegram
	resolver *fakeResolver
	finder   *fakeFinder
	store    *state.MemoryStore
}

func newTestEnv(cfg *config.Config) *testEnv {
	api := &fakeTelegram{}
	resolver := &fakeResolver{ref: models.DafReference{Masechta: "Berachos", Daf: 2}}
	finder := &fakeFinder{video: models.VideoInfo{
		Title:    "Berachos 2: In the Beginning",
		PageURL:  "https://alldaf.org/p/100",
		VideoURL: "https://cdn.jwplayer.com/videos/abc.mp4",
		Masechta: "Berachos",
		Daf:      2,
	}}
	store := state.NewMemoryStore()
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())

	b := New(api, "DafHistoryBot", resolver, finder, store, limiter, cfg, time.UTC, zap.NewNop())
	b.now = func() time.Time {
		return time.Date(2026, 2, 1, 6, 0, 0, 0, time.UTC)
	}
	return &testEnv{bot: b, api: api, resolver: resolver, finder: finder, store: store}
}

func update(id int, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: testUserID},
			Chat: &tgbotapi.Chat{ID: testUserChat},
			Text: text,
		},
	}
}

func sentTexts(api *fakeTelegram) []string {
	var texts []string
	for _, c := range api.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			texts = append(texts, m.Text)
		case tgbotapi.VideoConfig:
			texts = append(texts, m.Caption)
		}
	}
	return texts
}

func TestPollOnceProcessesInOrder(t *testing.T) {
	env := newTestEnv(testConfig())
	env.api.updates = []tgbotapi.Update{
		update(10, "/start"),
		update(11, "just chatting"),
		update(12, "/help"),
	}

	processed, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, processed)

	texts := sentTexts(env.api)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Welcome")
	assert.Contains(t, texts[1], "Help")

	id, ok, err := env.store.LastUpdateID()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(12), id)
}

func TestPollOnceFirstRunUsesZeroOffset(t *testing.T) {
	env := newTestEnv(testConfig())

	_, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, env.api.offsets, 1)
	assert.Equal(t, 0, env.api.offsets[0])
}

func TestPollOnceResumesAfterLastProcessed(t *testing.T) {
	env := newTestEnv(testConfig())
	require.NoError(t, env.store.SetLastUpdateID(41))

	_, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, env.api.offsets, 1)
	assert.Equal(t, 42, env.api.offsets[0])
}

func TestPollOnceAdvancesOffsetPastNonCommands(t *testing.T) {
	env := newTestEnv(testConfig())
	env.api.updates = []tgbotapi.Update{update(5, "hello there")}

	processed, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, processed)
	assert.Empty(t, env.api.sent)

	id, ok, _ := env.store.LastUpdateID()
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)
}

func TestPollOnceGetUpdatesFailureIsUpstream(t *testing.T) {
	env := newTestEnv(testConfig())
	env.api.getErr = fmt.Errorf("connection reset")

	_, err := env.bot.PollOnce(context.Background())
	assert.ErrorIs(t, err, models.ErrUpstream)
}

func TestTodayCommandSendsVideo(t *testing.T) {
	env := newTestEnv(testConfig())
	env.api.updates = []tgbotapi.Update{update(1, "/today")}

	_, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, env.api.sent, 1)
	video, ok := env.api.sent[0].(tgbotapi.VideoConfig)
	require.True(t, ok, "a direct MP4 URL should be sent as a video")
	assert.True(t, video.SupportsStreaming)
	assert.Contains(t, video.Caption, "Berachos 2")
}

func TestTodayCommandMentionSuffix(t *testing.T) {
	env := newTestEnv(testConfig())
	env.api.updates = []tgbotapi.Update{update(1, "/today@DafHistoryBot")}

	processed, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Len(t, env.api.sent, 1)
}

func TestTodayCommandFallsBackToText(t *testing.T) {
	env := newTestEnv(testConfig())
	env.finder.video.VideoURL = ""
	env.api.updates = []tgbotapi.Update{update(1, "/today")}

	_, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, env.api.sent, 1)
	_, ok := env.api.sent[0].(tgbotapi.MessageConfig)
	assert.True(t, ok, "without an MP4 URL the caption goes out as text")
}

func TestTodayCommandLookupFailure(t *testing.T) {
	env := newTestEnv(testConfig())
	env.finder.err = fmt.Errorf("alldaf: Berachos 2: %w", models.ErrVideoNotFound)
	env.api.updates = []tgbotapi.Update{update(1, "/today")}

	_, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)

	texts := sentTexts(env.api)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "couldn't find today's video")
}

func TestRateLimitedUserGetsNotice(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxRequests = 1
	env := newTestEnv(cfg)
	env.api.updates = []tgbotapi.Update{
		update(1, "/help"),
		update(2, "/help"),
	}

	_, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)

	texts := sentTexts(env.api)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], "Help")
	assert.Contains(t, texts[1], "too many requests")
}

func TestStartIsExemptFromRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.MaxRequests = 1
	env := newTestEnv(cfg)
	env.api.updates = []tgbotapi.Update{
		update(1, "/help"),
		update(2, "/start"),
	}

	_, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)

	texts := sentTexts(env.api)
	require.Len(t, texts, 2)
	assert.Contains(t, texts[1], "Welcome")
}

func TestUnknownCommandIgnoredSilently(t *testing.T) {
	env := newTestEnv(testConfig())
	env.api.updates = []tgbotapi.Update{update(1, "/frobnicate")}

	processed, err := env.bot.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, processed)
	assert.Empty(t, env.api.sent)
}

func TestSendDaily(t *testing.T) {
	env := newTestEnv(testConfig())

	require.NoError(t, env.bot.SendDaily(context.Background()))

	require.Len(t, env.api.sent, 1)
	video, ok := env.api.sent[0].(tgbotapi.VideoConfig)
	require.True(t, ok)
	assert.Contains(t, video.Caption, "Good morning")

	date, err := env.store.LastBroadcastDate()
	require.NoError(t, err)
	assert.Equal(t, "2026-02-01", date)
}

func TestSendDailyDeduplicates(t *testing.T) {
	env := newTestEnv(testConfig())

	require.NoError(t, env.bot.SendDaily(context.Background()))
	require.NoError(t, env.bot.SendDaily(context.Background()))

	assert.Len(t, env.api.sent, 1, "second run on the same date must be a no-op")
}

func TestSendDailyOutsideWindowSkips(t *testing.T) {
	env := newTestEnv(testConfig())
	env.bot.now = func() time.Time {
		return time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	}

	require.NoError(t, env.bot.SendDaily(context.Background()))

	assert.Empty(t, env.api.sent)
	date, _ := env.store.LastBroadcastDate()
	assert.Empty(t, date, "a skipped run must not record a broadcast")
}

func TestSendDailyRetriesUpstreamFailure(t *testing.T) {
	env := newTestEnv(testConfig())
	env.resolver.errs = []error{fmt.Errorf("hebcal: request failed: %w", models.ErrUpstream)}

	require.NoError(t, env.bot.SendDaily(context.Background()))

	assert.Equal(t, 2, env.resolver.calls, "one failure, one successful retry")
	assert.Len(t, env.api.sent, 1)
}

func TestSendDailyDoesNotRetryMissingVideo(t *testing.T) {
	env := newTestEnv(testConfig())
	env.finder.err = fmt.Errorf("alldaf: Berachos 2: %w", models.ErrVideoNotFound)

	err := env.bot.SendDaily(context.Background())
	assert.ErrorIs(t, err, models.ErrVideoNotFound)
	assert.Equal(t, 1, env.finder.calls, "missing content is terminal for the day")

	// The destination chat gets a failure notice.
	texts := sentTexts(env.api)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "Error fetching today's")
}

func TestSendDailyDeliveryFailure(t *testing.T) {
	env := newTestEnv(testConfig())
	env.api.sendErr = fmt.Errorf("chat not found")

	err := env.bot.SendDaily(context.Background())
	assert.ErrorIs(t, err, models.ErrDelivery)

	date, _ := env.store.LastBroadcastDate()
	assert.Empty(t, date, "a failed delivery must not record a broadcast")
}
