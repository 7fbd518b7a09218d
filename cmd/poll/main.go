// One-shot command poll, meant to be triggered periodically by an external
// scheduler. Processes the pending update batch and exits.
package main

import (
	"context"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/dafhistory/daf-history-bot/internal/alldaf"
	"github.com/dafhistory/daf-history-bot/internal/bot"
	"github.com/dafhistory/daf-history-bot/internal/hebcal"
	"github.com/dafhistory/daf-history-bot/internal/ratelimit"
	"github.com/dafhistory/daf-history-bot/internal/state"
	"github.com/dafhistory/daf-history-bot/pkg/config"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	loc, err := cfg.Schedule.Location()
	if err != nil {
		logger.Fatal("Failed to load timezone", zap.Error(err))
	}

	store, err := state.NewFileStore(cfg.State.Dir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize state store", zap.Error(err))
	}
	defer store.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("Failed to create bot API client", zap.Error(err))
	}

	resolver := hebcal.New(cfg.Hebcal.BaseURL, loc, cfg.HTTP.Timeout(), logger)
	finder := alldaf.New(cfg.AllDaf.BaseURL, cfg.AllDaf.SeriesPath, cfg.HTTP.Timeout(), logger)
	limiter := ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())

	b := bot.New(api, api.Self.UserName, resolver, finder, store, limiter, cfg, loc, logger)

	processed, err := b.PollOnce(context.Background())
	if err != nil {
		logger.Error("Poll failed", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Poll completed", zap.Int("commands_processed", processed))
}
