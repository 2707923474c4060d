package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	BotToken   string // Required: Telegram bot authentication token
	GroupID    int64  // Required: chat id of the monitored group
	RewardLink string // Required: private channel link granted on reward

	Threshold    int64  // Optional: referrals needed for the reward (default: 3)
	DatabaseFile string // Optional: path to SQLite database file (default: ./referrals.db)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)

	TransportTimeout time.Duration // Bound on each outbound Telegram call (default: 10s)
	SendRate         float64       // Outbound calls per second (default: 20)
	SendBurst        int           // Outbound burst size (default: 5)

	HousekeepingInterval time.Duration // Dead-letter prune interval (default: 1h)
	FailureRetention     time.Duration // Dead-letter retention (default: 168h)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
}

// LoadConfig reads configuration from the environment. Missing required
// values return an error so the process refuses to start half-configured.
func LoadConfig() (Config, error) {
	cfg := Config{
		BotToken:             os.Getenv("BOT_TOKEN"),
		RewardLink:           os.Getenv("PRIVATE_CHANNEL_LINK"),
		Threshold:            getEnvInt64OrDefault("REFERRAL_THRESHOLD", 3),
		DatabaseFile:         getEnvOrDefault("DATABASE_FILE", "referrals.db"),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		TransportTimeout:     getEnvDurationOrDefault("TRANSPORT_TIMEOUT", 10*time.Second),
		SendRate:             getEnvFloatOrDefault("SEND_RATE", 20),
		SendBurst:            getEnvIntOrDefault("SEND_BURST", 5),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		FailureRetention:     getEnvDurationOrDefault("FAILURE_RETENTION", 7*24*time.Hour),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.BotToken == "" {
		return Config{}, errors.New("BOT_TOKEN is required")
	}

	groupStr := os.Getenv("MAIN_GROUP_ID")
	if groupStr == "" {
		return Config{}, errors.New("MAIN_GROUP_ID is required")
	}
	groupID, err := strconv.ParseInt(groupStr, 10, 64)
	if err != nil {
		return Config{}, fmt.Errorf("MAIN_GROUP_ID must be an integer chat id: %w", err)
	}
	cfg.GroupID = groupID

	if cfg.RewardLink == "" {
		return Config{}, errors.New("PRIVATE_CHANNEL_LINK is required")
	}

	if cfg.Threshold < 1 {
		return Config{}, fmt.Errorf("REFERRAL_THRESHOLD must be at least 1, got %d", cfg.Threshold)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
		return floatValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
