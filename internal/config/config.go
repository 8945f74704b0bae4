package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// AniList
	AnilistURL            string
	AnilistRatePerMinute  int
	AnilistMaxRetries     int
	AnilistTimeoutSeconds int

	// Snapshot refresh
	RefreshSchedule   string // cron spec, e.g. "0 */12 * * *"
	RefreshEnabled    bool
	SnapshotRetention int // snapshots kept per user

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/aniwrap.db

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// .env is optional
	_ = viper.ReadInConfig()

	viper.SetDefault("ANIWRAP_ANILIST_URL", "https://graphql.anilist.co")
	viper.SetDefault("ANIWRAP_ANILIST_RATE_PER_MINUTE", 90)
	viper.SetDefault("ANIWRAP_ANILIST_MAX_RETRIES", 3)
	viper.SetDefault("ANIWRAP_ANILIST_TIMEOUT_SECONDS", 30)
	viper.SetDefault("ANIWRAP_REFRESH_SCHEDULE", "0 */12 * * *")
	viper.SetDefault("ANIWRAP_REFRESH_ENABLED", true)
	viper.SetDefault("ANIWRAP_SNAPSHOT_RETENTION", 12)
	viper.SetDefault("ANIWRAP_SERVER_PORT", "8080")
	viper.SetDefault("ANIWRAP_LOG_LEVEL", "info")
	viper.SetDefault("ANIWRAP_LOG_FORMAT", "text")

	configDir := viper.GetString("ANIWRAP_CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "aniwrap")
	} else {
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for ANIWRAP_CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		AnilistURL:            viper.GetString("ANIWRAP_ANILIST_URL"),
		AnilistRatePerMinute:  viper.GetInt("ANIWRAP_ANILIST_RATE_PER_MINUTE"),
		AnilistMaxRetries:     viper.GetInt("ANIWRAP_ANILIST_MAX_RETRIES"),
		AnilistTimeoutSeconds: viper.GetInt("ANIWRAP_ANILIST_TIMEOUT_SECONDS"),

		RefreshSchedule:   viper.GetString("ANIWRAP_REFRESH_SCHEDULE"),
		RefreshEnabled:    viper.GetBool("ANIWRAP_REFRESH_ENABLED"),
		SnapshotRetention: viper.GetInt("ANIWRAP_SNAPSHOT_RETENTION"),

		ServerPort: viper.GetString("ANIWRAP_SERVER_PORT"),

		DatabaseFile: filepath.Join(configDir, "aniwrap.db"),

		LogLevel:  viper.GetString("ANIWRAP_LOG_LEVEL"),
		LogFormat: viper.GetString("ANIWRAP_LOG_FORMAT"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks that the loaded values are usable
func (c *Config) Validate() error {
	if c.AnilistURL == "" {
		return fmt.Errorf("ANIWRAP_ANILIST_URL is required")
	}
	if c.AnilistRatePerMinute <= 0 {
		return fmt.Errorf("ANIWRAP_ANILIST_RATE_PER_MINUTE must be positive, got %d", c.AnilistRatePerMinute)
	}
	if c.AnilistMaxRetries < 0 {
		return fmt.Errorf("ANIWRAP_ANILIST_MAX_RETRIES must not be negative, got %d", c.AnilistMaxRetries)
	}
	if c.AnilistTimeoutSeconds <= 0 {
		return fmt.Errorf("ANIWRAP_ANILIST_TIMEOUT_SECONDS must be positive, got %d", c.AnilistTimeoutSeconds)
	}
	if c.ServerPort == "" {
		return fmt.Errorf("ANIWRAP_SERVER_PORT is required")
	}
	if c.SnapshotRetention < 1 {
		return fmt.Errorf("ANIWRAP_SNAPSHOT_RETENTION must be at least 1, got %d", c.SnapshotRetention)
	}
	if c.RefreshEnabled && c.RefreshSchedule == "" {
		return fmt.Errorf("ANIWRAP_REFRESH_SCHEDULE is required when refresh is enabled")
	}
	return nil
}
