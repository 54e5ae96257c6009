// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	WebhookSecret  string
	RecallAPIBase  string
	RecallAPIToken string
	RecallTimeout  time.Duration
	PauseDuration  time.Duration
	DBPath         string // empty = in-memory store
	SessionTTL     time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		WebhookSecret:  getEnv("WEBHOOK_SECRET", ""),
		RecallAPIBase:  getEnv("RECALL_API_BASE", "https://us-east-1.recall.ai"),
		RecallAPIToken: getEnv("RECALL_API_TOKEN", ""),
		RecallTimeout:  getEnvDuration("RECALL_TIMEOUT", 30*time.Second),
		PauseDuration:  getEnvDuration("PAUSE_DURATION", 30*time.Second),
		DBPath:         getEnv("DB_PATH", ""),
		SessionTTL:     getEnvDuration("SESSION_TTL", 24*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET cannot be empty")
	}
	if c.RecallAPIBase == "" {
		return fmt.Errorf("RECALL_API_BASE cannot be empty")
	}
	if c.RecallAPIToken == "" {
		return fmt.Errorf("RECALL_API_TOKEN cannot be empty")
	}
	if c.RecallTimeout <= 0 {
		return fmt.Errorf("RECALL_TIMEOUT must be > 0")
	}
	if c.PauseDuration <= 0 {
		return fmt.Errorf("PAUSE_DURATION must be > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
