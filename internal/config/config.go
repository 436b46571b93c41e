// Package config defines the leechbot configuration and its viper-backed
// loader.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the main leechbot configuration.
type Config struct {
	// Telegram
	Telegram TelegramConfig `json:"telegram" mapstructure:"telegram"`

	// Resolver
	Resolver ResolverConfig `json:"resolver" mapstructure:"resolver"`

	// Download
	Download DownloadConfig `json:"download" mapstructure:"download"`

	// Sessions
	Sessions SessionsConfig `json:"sessions" mapstructure:"sessions"`

	// Health
	Health HealthConfig `json:"health" mapstructure:"health"`

	// Metrics
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// TelegramConfig holds Telegram bot configuration.
type TelegramConfig struct {
	BotToken       string `json:"bot_token" mapstructure:"bot_token"`
	PollTimeoutSec int    `json:"poll_timeout_sec" mapstructure:"poll_timeout_sec"`
}

// ResolverConfig holds the media-resolution API configuration.
type ResolverConfig struct {
	BaseURL string `json:"base_url" mapstructure:"base_url"`
}

// DownloadConfig holds download-orchestration configuration.
type DownloadConfig struct {
	WorkRoot       string `json:"work_root" mapstructure:"work_root"`
	HTTPTimeoutSec int    `json:"http_timeout_sec" mapstructure:"http_timeout_sec"`
	Retries        int    `json:"retries" mapstructure:"retries"`
}

// SessionsConfig holds session-lifecycle configuration.
type SessionsConfig struct {
	// IdleTTLMin evicts sessions idle for longer than this many minutes.
	// 0 disables eviction.
	IdleTTLMin int `json:"idle_ttl_min" mapstructure:"idle_ttl_min"`

	// SweepSchedule is a cron spec for the eviction sweep.
	SweepSchedule string `json:"sweep_schedule" mapstructure:"sweep_schedule"`
}

// HealthConfig holds the liveness endpoint configuration.
type HealthConfig struct {
	Port int    `json:"port" mapstructure:"port"`
	Body string `json:"body" mapstructure:"body"`
}

// MetricsConfig holds the Prometheus endpoint configuration.
type MetricsConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	Port    int  `json:"port" mapstructure:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{
			PollTimeoutSec: 60,
		},
		Resolver: ResolverConfig{
			BaseURL: "https://anonymouspwplayer-25261acd1521.herokuapp.com/pw",
		},
		Download: DownloadConfig{
			HTTPTimeoutSec: 60,
			Retries:        3,
		},
		Sessions: SessionsConfig{
			IdleTTLMin:    30,
			SweepSchedule: "@every 1m",
		},
		Health: HealthConfig{
			Port: 8000,
			Body: "OK",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: true,
		},
	}
}

// HTTPTimeout returns the download HTTP timeout as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Download.HTTPTimeoutSec) * time.Second
}

// IdleTTL returns the session idle TTL as a duration; zero disables eviction.
func (c *Config) IdleTTL() time.Duration {
	return time.Duration(c.Sessions.IdleTTLMin) * time.Minute
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token is required (set LEECHBOT_TELEGRAM_BOT_TOKEN)")
	}

	if c.Resolver.BaseURL == "" {
		return fmt.Errorf("resolver base_url is required")
	}
	if u, err := url.Parse(c.Resolver.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("resolver base_url is not a valid absolute URL: %s", c.Resolver.BaseURL)
	}

	if c.Download.Retries < 0 {
		return fmt.Errorf("download retries must not be negative")
	}
	if c.Download.HTTPTimeoutSec <= 0 {
		return fmt.Errorf("download http_timeout_sec must be positive")
	}

	if c.Health.Port <= 0 || c.Health.Port > 65535 {
		return fmt.Errorf("invalid health port: %d", c.Health.Port)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}

	if c.Sessions.IdleTTLMin < 0 {
		return fmt.Errorf("sessions idle_ttl_min must not be negative")
	}

	return nil
}
