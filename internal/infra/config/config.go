package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"

	defaultRelayApplicationID = "466378653216014359" // PluralKit
)

// AppConfig holds all configuration for the application. It is read once at startup.
type AppConfig struct {
	Platform      string
	DiscordToken  string
	TelegramToken string

	GuildID      string
	ChannelIDs   []string
	TargetUserID string

	SelfReminderDelay  time.Duration
	OtherReminderDelay time.Duration
	SnoozeDelay        time.Duration
	DispatchInterval   time.Duration
	SendDM             bool // REMINDER_DELIVERY=dm

	RelayApplicationID string
	PluralKitAPIURL    string
	ProxyCacheTTL      time.Duration // 0 disables the resolution cache

	DatabaseURL          string // Journal storage; empty keeps the journal off
	JournalRetention     time.Duration
	CronSpecSummary      string
	CronSpecJournalPrune string

	StatusAddr  string
	LogLevel    string
	Environment string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.Platform = strings.ToLower(os.Getenv("PLATFORM"))
	if cfg.Platform == "" {
		cfg.Platform = PlatformDiscord
	}
	switch cfg.Platform {
	case PlatformDiscord:
		cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
		if cfg.DiscordToken == "" {
			return nil, fmt.Errorf("DISCORD_TOKEN is not set")
		}
	case PlatformTelegram:
		cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
		if cfg.TelegramToken == "" {
			return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("invalid PLATFORM %q: expected %s or %s", cfg.Platform, PlatformDiscord, PlatformTelegram)
	}

	if cfg.GuildID, err = requiredID("GUILD_ID"); err != nil {
		return nil, err
	}
	if cfg.TargetUserID, err = requiredID("TARGET_USER_ID"); err != nil {
		return nil, err
	}

	channels := os.Getenv("CHANNEL_IDS")
	if channels == "" {
		return nil, fmt.Errorf("CHANNEL_IDS is not set")
	}
	for _, part := range strings.Split(channels, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid CHANNEL_IDS entry %q: %w", part, err)
		}
		cfg.ChannelIDs = append(cfg.ChannelIDs, part)
	}
	if len(cfg.ChannelIDs) == 0 {
		return nil, fmt.Errorf("CHANNEL_IDS has no channel ids")
	}

	if cfg.SelfReminderDelay, err = seconds("SELF_REMINDER_DELAY_SECONDS", 60*60*3); err != nil {
		return nil, err
	}
	if cfg.OtherReminderDelay, err = seconds("OTHER_REMINDER_DELAY_SECONDS", 60*10); err != nil {
		return nil, err
	}
	if cfg.SnoozeDelay, err = seconds("SNOOZE_DELAY_SECONDS", 60*60); err != nil {
		return nil, err
	}

	if cfg.DispatchInterval, err = duration("DISPATCH_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.DispatchInterval < time.Second {
		return nil, fmt.Errorf("DISPATCH_INTERVAL must be at least 1s, got %s", cfg.DispatchInterval)
	}

	switch delivery := strings.ToLower(os.Getenv("REMINDER_DELIVERY")); delivery {
	case "", "ping":
		cfg.SendDM = false
	case "dm":
		cfg.SendDM = true
	default:
		return nil, fmt.Errorf("invalid REMINDER_DELIVERY %q: expected ping or dm", delivery)
	}

	cfg.RelayApplicationID = os.Getenv("RELAY_APPLICATION_ID")
	if cfg.RelayApplicationID == "" {
		cfg.RelayApplicationID = defaultRelayApplicationID
	}
	cfg.PluralKitAPIURL = os.Getenv("PLURALKIT_API_URL")
	if cfg.PluralKitAPIURL == "" {
		cfg.PluralKitAPIURL = "https://api.pluralkit.me"
	}
	if cfg.ProxyCacheTTL, err = duration("PROXY_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.JournalRetention, err = duration("JOURNAL_RETENTION", 30*24*time.Hour); err != nil {
		return nil, err
	}
	cfg.CronSpecSummary = os.Getenv("CRON_SPEC_SUMMARY")
	if cfg.CronSpecSummary == "" {
		cfg.CronSpecSummary = "0 * * * *" // Default: hourly
	}
	cfg.CronSpecJournalPrune = os.Getenv("CRON_SPEC_JOURNAL_PRUNE")
	if cfg.CronSpecJournalPrune == "" {
		cfg.CronSpecJournalPrune = "30 3 * * *" // Default: 03:30 daily
	}

	cfg.StatusAddr = os.Getenv("STATUS_ADDR")

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	return cfg, nil
}

func requiredID(name string) (string, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return "", fmt.Errorf("%s is not set", name)
	}
	if _, err := strconv.ParseInt(v, 10, 64); err != nil {
		return "", fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func seconds(name string, def int) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return time.Duration(def) * time.Second, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return time.Duration(n) * time.Second, nil
}

func duration(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	if v == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return d, nil
}
