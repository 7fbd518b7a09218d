package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dafhistory/daf-history-bot/internal/command"
	"github.com/dafhistory/daf-history-bot/internal/message"
	"github.com/dafhistory/daf-history-bot/internal/models"
	"github.com/dafhistory/daf-history-bot/internal/ratelimit"
	"github.com/dafhistory/daf-history-bot/internal/state"
	"github.com/dafhistory/daf-history-bot/pkg/config"
)

// TelegramAPI is the slice of the Bot API client the orchestrator needs.
// *tgbotapi.BotAPI satisfies it.
type TelegramAPI interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// DafResolver resolves today's Daf Yomi reference.
type DafResolver interface {
	ResolveToday(ctx context.Context) (models.DafReference, error)
}

// VideoFinder locates the video matching a daf reference.
type VideoFinder interface {
	FindVideo(ctx context.Context, ref models.DafReference) (models.VideoInfo, error)
}

type Bot struct {
	api      TelegramAPI
	username string
	resolver DafResolver
	finder   VideoFinder
	store    state.Store
	limiter  *ratelimit.Limiter
	logger   *zap.Logger

	chatID       int64
	location     *time.Location
	sendHour     int
	sendMinute   int
	windowBefore time.Duration
	windowAfter  time.Duration
	pollTimeout  int
	maxRetries   uint64

	now func() time.Time
}

// New wires the orchestrator. username is the bot's own Telegram username,
// used to strip command mention suffixes.
func New(
	api TelegramAPI,
	username string,
	resolver DafResolver,
	finder VideoFinder,
	store state.Store,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	loc *time.Location,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:          api,
		username:     username,
		resolver:     resolver,
		finder:       finder,
		store:        store,
		limiter:      limiter,
		logger:       logger,
		chatID:       cfg.Telegram.ChatID,
		location:     loc,
		sendHour:     cfg.Schedule.Hour,
		sendMinute:   cfg.Schedule.Minute,
		windowBefore: cfg.Schedule.WindowBefore(),
		windowAfter:  cfg.Schedule.WindowAfter(),
		pollTimeout:  cfg.Poll.TimeoutSeconds,
		maxRetries:   uint64(cfg.Retry.MaxAttempts),
		now:          time.Now,
	}
}

// PollOnce fetches pending updates and processes them in feed order. The
// persisted offset advances after every update, command or not, so a
// restart resumes after the last handled batch. If the process dies between
// a reply and the offset write the update is handled again on the next run;
// that at-least-once behavior is accepted.
func (b *Bot) PollOnce(ctx context.Context) (int, error) {
	log := b.logger.With(zap.String("run_id", uuid.New().String()))

	lastID, ok, err := b.store.LastUpdateID()
	if err != nil {
		return 0, err
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.pollTimeout
	updateConfig.AllowedUpdates = []string{"message"}
	if ok {
		updateConfig.Offset = int(lastID) + 1
	}

	updates, err := b.api.GetUpdates(updateConfig)
	if err != nil {
		return 0, fmt.Errorf("get updates: %v: %w", err, models.ErrUpstream)
	}
	if len(updates) == 0 {
		log.Debug("No new updates")
		return 0, nil
	}

	processed := 0
	for _, update := range updates {
		if b.handleUpdate(ctx, log, update) {
			processed++
		}
		if err := b.store.SetLastUpdateID(int64(update.UpdateID)); err != nil {
			return processed, err
		}
	}

	log.Info("Poll batch complete",
		zap.Int("updates", len(updates)),
		zap.Int("commands", processed))
	return processed, nil
}

// Run polls in a loop until ctx is cancelled. Errors from a single
// iteration are logged and the loop continues on the next tick.
func (b *Bot) Run(ctx context.Context, interval time.Duration) error {
	for {
		if _, err := b.PollOnce(ctx); err != nil {
			b.logger.Error("Poll iteration failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// handleUpdate reports whether the update carried a command it dispatched.
func (b *Bot) handleUpdate(ctx context.Context, log *zap.Logger, update tgbotapi.Update) bool {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		log.Debug("Skipping update without message", zap.Int("update_id", update.UpdateID))
		return false
	}

	parsed := command.Parse(msg.Text, b.username)
	if !parsed.IsCommand() {
		return false
	}

	b.dispatch(ctx, log, msg.Chat.ID, msg.From.ID, parsed)
	return true
}

func (b *Bot) dispatch(ctx context.Context, log *zap.Logger, chatID, userID int64, parsed models.ParsedCommand) {
	log = log.With(
		zap.String("command", parsed.Name),
		zap.Int64("user_id", userID))

	// /start is exempt: a brand-new user must always get the welcome.
	if parsed.Name != command.Start {
		now := b.now()
		if !b.limiter.Allow(userID, now) {
			log.Info("Rate limited user")
			b.send(log, chatID, message.RateLimited(b.limiter.ResetAfter(userID, now)))
			return
		}
	}

	switch parsed.Name {
	case command.Start:
		b.send(log, chatID, message.Welcome())
	case command.Help:
		b.send(log, chatID, message.Help())
	case command.Today:
		b.handleToday(ctx, log, chatID)
	default:
		// Unknown commands are ignored silently.
		log.Debug("Ignoring unknown command")
	}
}

func (b *Bot) handleToday(ctx context.Context, log *zap.Logger, chatID int64) {
	video, err := b.lookupToday(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNoDaf) || errors.Is(err, models.ErrVideoNotFound) {
			log.Info("No video for today", zap.Error(err))
		} else {
			log.Error("Failed to fetch today's video", zap.Error(err))
		}
		b.send(log, chatID, message.LookupError())
		return
	}

	if err := b.deliver(chatID, message.VideoCaption(video)); err != nil {
		log.Error("Failed to send today's video", zap.Error(err))
		return
	}
	log.Info("Sent today's video", zap.String("title", video.Title))
}

// lookupToday resolves the daf and finds its video, without retries. The
// command path answers immediately; the broadcast path layers retries on
// top of the same lookup.
func (b *Bot) lookupToday(ctx context.Context) (models.VideoInfo, error) {
	ref, err := b.resolver.ResolveToday(ctx)
	if err != nil {
		return models.VideoInfo{}, err
	}
	return b.finder.FindVideo(ctx, ref)
}

// deliver sends an outbound message, as a streaming video when a direct
// URL is known and as text otherwise.
func (b *Bot) deliver(chatID int64, out models.OutboundMessage) error {
	var payload tgbotapi.Chattable
	if out.VideoURL != "" {
		video := tgbotapi.NewVideo(chatID, tgbotapi.FileURL(out.VideoURL))
		video.Caption = out.Text
		video.ParseMode = string(out.ParseMode)
		video.SupportsStreaming = true
		payload = video
	} else {
		text := tgbotapi.NewMessage(chatID, out.Text)
		text.ParseMode = string(out.ParseMode)
		payload = text
	}

	if _, err := b.api.Send(payload); err != nil {
		return fmt.Errorf("send to chat %d: %v: %w", chatID, err, models.ErrDelivery)
	}
	return nil
}

// send delivers a message and logs a failure instead of returning it; used
// on the command path where there is nobody to report the error to.
func (b *Bot) send(log *zap.Logger, chatID int64, out models.OutboundMessage) {
	if err := b.deliver(chatID, out); err != nil {
		log.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
