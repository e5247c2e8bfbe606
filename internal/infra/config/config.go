package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DiscordToken          string
	DatabaseURL           string
	AnnouncementChannelID string
	Timezone              *time.Location // fixed civil timezone for all scheduling
	TickInterval          time.Duration  // reminder sweep cadence
	HealthAddr            string
	LogLevel              string
	Environment           string
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	if cfg.DiscordToken == "" {
		return nil, fmt.Errorf("DISCORD_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.AnnouncementChannelID = os.Getenv("RAID_ANNOUNCEMENT_CHANNEL_ID")
	if cfg.AnnouncementChannelID == "" {
		return nil, fmt.Errorf("RAID_ANNOUNCEMENT_CHANNEL_ID is not set")
	}
	if _, err := strconv.ParseUint(cfg.AnnouncementChannelID, 10, 64); err != nil {
		return nil, fmt.Errorf("invalid RAID_ANNOUNCEMENT_CHANNEL_ID: %w", err)
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "Asia/Seoul"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}
	cfg.Timezone = loc

	intervalStr := os.Getenv("REMINDER_TICK_INTERVAL")
	if intervalStr == "" {
		intervalStr = "5m"
	}
	cfg.TickInterval, err = time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TICK_INTERVAL: %w", err)
	}
	if cfg.TickInterval < time.Minute {
		return nil, fmt.Errorf("REMINDER_TICK_INTERVAL must be at least 1m, got %s", cfg.TickInterval)
	}

	cfg.HealthAddr = os.Getenv("HEALTH_ADDR")
	if cfg.HealthAddr == "" {
		cfg.HealthAddr = ":8000"
	}

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
