package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Hebcal    HebcalConfig    `mapstructure:"hebcal"`
	AllDaf    AllDafConfig    `mapstructure:"alldaf"`
	Poll      PollConfig      `mapstructure:"poll"`
	Retry     RetryConfig     `mapstructure:"retry"`
	State     StateConfig     `mapstructure:"state"`
	HTTP      HTTPConfig      `mapstructure:"http"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID int64  `mapstructure:"chat_id"`
}

type ScheduleConfig struct {
	Hour                int    `mapstructure:"hour"`
	Minute              int    `mapstructure:"minute"`
	Timezone            string `mapstructure:"timezone"`
	WindowBeforeMinutes int    `mapstructure:"window_before_minutes"`
	WindowAfterMinutes  int    `mapstructure:"window_after_minutes"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

type HebcalConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type AllDafConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	SeriesPath string `mapstructure:"series_path"`
}

type PollConfig struct {
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
	IntervalSeconds int `mapstructure:"interval_seconds"`
}

type RetryConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
}

type StateConfig struct {
	Dir string `mapstructure:"dir"`
}

type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

func (c ScheduleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c ScheduleConfig) WindowBefore() time.Duration {
	return time.Duration(c.WindowBeforeMinutes) * time.Minute
}

func (c ScheduleConfig) WindowAfter() time.Duration {
	return time.Duration(c.WindowAfterMinutes) * time.Minute
}

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// LoadConfig reads configuration from an optional YAML file and the process
// environment. Environment variables always win over file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("schedule.hour", 6)
	v.SetDefault("schedule.minute", 0)
	v.SetDefault("schedule.timezone", "Asia/Jerusalem")
	v.SetDefault("schedule.window_before_minutes", 15)
	v.SetDefault("schedule.window_after_minutes", 45)
	v.SetDefault("rate_limit.max_requests", 5)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("hebcal.base_url", "https://www.hebcal.com/hebcal")
	v.SetDefault("alldaf.base_url", "https://alldaf.org")
	v.SetDefault("alldaf.series_path", "/series/3940")
	v.SetDefault("poll.timeout_seconds", 0)
	v.SetDefault("poll.interval_seconds", 5)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("state.dir", "state")
	v.SetDefault("http.timeout_seconds", 30)

	// Enable environment variable support
	v.AutomaticEnv()

	// The config file is optional; environment-only deployments are the norm.
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if token := v.GetString("TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.Token = token
	}
	if chatID := v.GetString("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", chatID, err)
		}
		config.Telegram.ChatID = id
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the required credentials before any network call is made.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return errors.New("TELEGRAM_BOT_TOKEN is not set (config key telegram.token)")
	}
	if c.Telegram.ChatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID is not set (config key telegram.chat_id)")
	}
	if _, err := c.Schedule.Location(); err != nil {
		return fmt.Errorf("invalid schedule.timezone %q: %w", c.Schedule.Timezone, err)
	}
	return nil
}
