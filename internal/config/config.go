// Package config provides application configuration management using environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Placeholder credentials used when the environment does not provide real ones.
// With these in place the Discord client serves fallback data only.
const (
	PlaceholderBotToken = "YOUR_BOT_TOKEN_HERE"
	PlaceholderGuildID  = "YOUR_GUILD_ID_HERE"

	DefaultDiscordAPIBaseURL = "https://discord.com/api/v10"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Discord DiscordConfig
	Storage StorageConfig
	Logging LoggingConfig
	Metrics MetricsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	HTTPPort     string
	Env          string
	CollectDelay time.Duration
}

// DiscordConfig holds the bot credential and the guild being proxied
type DiscordConfig struct {
	BotToken       string
	GuildID        string
	APIBaseURL     string
	RequestTimeout time.Duration
}

// StorageConfig holds filesystem locations
type StorageConfig struct {
	UploadDir string
	StaticDir string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the Prometheus collectors and the /metrics route
type MetricsConfig struct {
	Enabled bool
}

// Load loads configuration from environment variables
// It optionally loads from a .env file if it exists
func Load() (*Config, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	timeoutSeconds, err := strconv.Atoi(getEnv("DISCORD_HTTP_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISCORD_HTTP_TIMEOUT_SECONDS: %w", err)
	}

	collectDelayMs, err := strconv.Atoi(getEnv("COLLECT_DELAY_MS", "1000"))
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECT_DELAY_MS: %w", err)
	}

	metricsEnabled, err := strconv.ParseBool(getEnv("METRICS_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_ENABLED: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("HTTP_HOST", "0.0.0.0"),
			HTTPPort:     getEnv("HTTP_PORT", "8000"),
			Env:          getEnv("ENVIRONMENT", "development"),
			CollectDelay: time.Duration(collectDelayMs) * time.Millisecond,
		},
		Discord: DiscordConfig{
			BotToken:       getEnv("DISCORD_BOT_TOKEN", PlaceholderBotToken),
			GuildID:        getEnv("GUILD_ID", PlaceholderGuildID),
			APIBaseURL:     getEnv("DISCORD_API_BASE_URL", DefaultDiscordAPIBaseURL),
			RequestTimeout: time.Duration(timeoutSeconds) * time.Second,
		},
		Storage: StorageConfig{
			UploadDir: getEnv("UPLOAD_DIR", "uploads"),
			StaticDir: getEnv("STATIC_DIR", "."),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: metricsEnabled,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
// Missing Discord credentials are deliberately not an error.
func (c *Config) Validate() error {
	if c.Server.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT is required")
	}
	if c.Server.CollectDelay < 0 {
		return fmt.Errorf("COLLECT_DELAY_MS must not be negative")
	}

	if c.Discord.APIBaseURL == "" {
		return fmt.Errorf("DISCORD_API_BASE_URL is required")
	}
	if c.Discord.RequestTimeout <= 0 {
		return fmt.Errorf("DISCORD_HTTP_TIMEOUT_SECONDS must be positive")
	}

	if c.Storage.UploadDir == "" {
		return fmt.Errorf("UPLOAD_DIR is required")
	}
	if c.Storage.StaticDir == "" {
		return fmt.Errorf("STATIC_DIR is required")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error")
	}
	validLogFormats := map[string]bool{"json": true, "console": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}

	return nil
}

// HasCredentials reports whether a real bot token and guild ID were supplied.
func (d *DiscordConfig) HasCredentials() bool {
	return d.BotToken != "" && d.BotToken != PlaceholderBotToken &&
		d.GuildID != "" && d.GuildID != PlaceholderGuildID
}

// Addr returns the listen address for the HTTP server
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.HTTPPort
}

// getEnv retrieves an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
