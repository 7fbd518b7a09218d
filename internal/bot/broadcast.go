package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dafhistory/daf-history-bot/internal/message"
	"github.com/dafhistory/daf-history-bot/internal/models"
	"github.com/dafhistory/daf-history-bot/internal/schedule"
)

// SendDaily performs one daily broadcast: resolve today's daf, find its
// video, send it to the configured chat, and record the broadcast date.
// A run outside the send window, or on a date already broadcast, is a
// no-op. Upstream failures are retried with exponential backoff; a missing
// daf or video is terminal for the day.
func (b *Bot) SendDaily(ctx context.Context) error {
	log := b.logger.With(zap.String("run_id", uuid.New().String()))

	now := b.now().In(b.location)
	today := now.Format("2006-01-02")

	last, err := b.store.LastBroadcastDate()
	if err != nil {
		return err
	}
	if last == today {
		log.Info("Already broadcast today, skipping", zap.String("date", today))
		return nil
	}

	if !schedule.WithinSendWindow(now, b.sendHour, b.sendMinute, b.windowBefore, b.windowAfter, b.location) {
		log.Warn("Outside send window, skipping",
			zap.Time("now", now),
			zap.Int("send_hour", b.sendHour))
		return nil
	}

	video, err := b.lookupTodayWithRetry(ctx, log)
	if err != nil {
		if errors.Is(err, models.ErrNoDaf) || errors.Is(err, models.ErrVideoNotFound) {
			log.Info("No broadcast content for today", zap.Error(err))
		} else {
			log.Error("Daily lookup failed", zap.Error(err))
		}
		b.notifyFailure(log, err)
		return err
	}

	if err := b.deliver(b.chatID, message.DailyBroadcast(video)); err != nil {
		log.Error("Daily broadcast delivery failed", zap.Error(err))
		return err
	}

	if err := b.store.SetLastBroadcastDate(today); err != nil {
		log.Error("Failed to record broadcast date", zap.Error(err))
		return err
	}

	log.Info("Daily broadcast sent",
		zap.String("date", today),
		zap.String("title", video.Title))
	return nil
}

// RunScheduler triggers SendDaily at the configured local time every day
// until ctx is cancelled.
func (b *Bot) RunScheduler(ctx context.Context) error {
	for {
		next := schedule.NextRun(b.now(), b.sendHour, b.sendMinute, b.location)
		b.logger.Info("Next daily broadcast scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			if err := b.SendDaily(ctx); err != nil {
				b.logger.Error("Daily broadcast failed", zap.Error(err))
			}
		}
	}
}

// lookupTodayWithRetry retries the lookup on upstream failures only.
// ErrNoDaf and ErrVideoNotFound mean the content genuinely is not there;
// retrying cannot fix that.
func (b *Bot) lookupTodayWithRetry(ctx context.Context, log *zap.Logger) (models.VideoInfo, error) {
	var video models.VideoInfo
	attempt := 0

	operation := func() error {
		attempt++
		v, err := b.lookupToday(ctx)
		if err != nil {
			if errors.Is(err, models.ErrUpstream) {
				log.Warn("Lookup attempt failed",
					zap.Int("attempt", attempt),
					zap.Error(err))
				return err
			}
			return backoff.Permanent(err)
		}
		video = v
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), b.maxRetries),
		ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return models.VideoInfo{}, err
	}
	return video, nil
}

// notifyFailure tells the destination chat that today's broadcast could not
// be produced. Best effort; a failure here is only logged.
func (b *Bot) notifyFailure(log *zap.Logger, cause error) {
	out := models.OutboundMessage{
		Text: fmt.Sprintf("Error fetching today's Daf Yomi History video: %v", cause),
	}
	if err := b.deliver(b.chatID, out); err != nil {
		log.Error("Failed to send failure notice", zap.Error(err))
	}
}
