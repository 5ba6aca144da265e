package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API   APIConfig
	Punch PunchConfig
	Poll  PollConfig
	App   AppConfig
}

// APIConfig points the client at the HRIS backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// PunchConfig holds the punch window policy. Deployments diverge on the
// rule (time cutoffs vs. photo-gated), so the mode is configuration.
type PunchConfig struct {
	PolicyMode      string // "cutoff" or "photo"
	InCutoffHour    int
	InCutoffMinute  int
	OutCutoffHour   int
	OutCutoffMinute int
	PhotoRequired   bool
	MinWorkDuration time.Duration
}

// PollConfig holds the view's refresh cadence.
type PollConfig struct {
	StatusInterval time.Duration
	TickInterval   time.Duration
}

// AppConfig holds application configuration
type AppConfig struct {
	Env         string
	LogLevel    string
	Timezone    string
	SessionPath string
	CachePath   string
}

func Load() (*Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	config := &Config{}

	apiTimeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}
	config.API = APIConfig{
		BaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout: apiTimeout,
	}

	inHour, err := strconv.Atoi(getEnv("PUNCH_IN_CUTOFF_HOUR", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUNCH_IN_CUTOFF_HOUR: %w", err)
	}
	inMinute, err := strconv.Atoi(getEnv("PUNCH_IN_CUTOFF_MINUTE", "45"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUNCH_IN_CUTOFF_MINUTE: %w", err)
	}
	outHour, err := strconv.Atoi(getEnv("PUNCH_OUT_CUTOFF_HOUR", "13"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUNCH_OUT_CUTOFF_HOUR: %w", err)
	}
	outMinute, err := strconv.Atoi(getEnv("PUNCH_OUT_CUTOFF_MINUTE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUNCH_OUT_CUTOFF_MINUTE: %w", err)
	}
	minWork, err := time.ParseDuration(getEnv("PUNCH_MIN_WORK_DURATION", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid PUNCH_MIN_WORK_DURATION: %w", err)
	}

	config.Punch = PunchConfig{
		PolicyMode:      getEnv("PUNCH_POLICY", "cutoff"),
		InCutoffHour:    inHour,
		InCutoffMinute:  inMinute,
		OutCutoffHour:   outHour,
		OutCutoffMinute: outMinute,
		PhotoRequired:   getEnvBool("PUNCH_PHOTO_REQUIRED", false),
		MinWorkDuration: minWork,
	}

	statusInterval, err := time.ParseDuration(getEnv("STATUS_POLL_INTERVAL", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATUS_POLL_INTERVAL: %w", err)
	}
	tickInterval, err := time.ParseDuration(getEnv("CLOCK_TICK_INTERVAL", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLOCK_TICK_INTERVAL: %w", err)
	}
	config.Poll = PollConfig{
		StatusInterval: statusInterval,
		TickInterval:   tickInterval,
	}

	config.App = AppConfig{
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Timezone:    getEnv("TIMEZONE", ""),
		SessionPath: getEnv("SESSION_PATH", ""),
		CachePath:   getEnv("CACHE_PATH", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.Punch.PolicyMode != "cutoff" && c.Punch.PolicyMode != "photo" {
		return fmt.Errorf("PUNCH_POLICY must be \"cutoff\" or \"photo\", got %q", c.Punch.PolicyMode)
	}
	if c.Punch.InCutoffHour < 0 || c.Punch.InCutoffHour > 23 {
		return fmt.Errorf("PUNCH_IN_CUTOFF_HOUR must be between 0 and 23")
	}
	if c.Punch.OutCutoffHour < 0 || c.Punch.OutCutoffHour > 23 {
		return fmt.Errorf("PUNCH_OUT_CUTOFF_HOUR must be between 0 and 23")
	}
	if c.Punch.InCutoffMinute < 0 || c.Punch.InCutoffMinute > 59 {
		return fmt.Errorf("PUNCH_IN_CUTOFF_MINUTE must be between 0 and 59")
	}
	if c.Punch.OutCutoffMinute < 0 || c.Punch.OutCutoffMinute > 59 {
		return fmt.Errorf("PUNCH_OUT_CUTOFF_MINUTE must be between 0 and 59")
	}
	if c.Poll.StatusInterval <= 0 {
		return fmt.Errorf("STATUS_POLL_INTERVAL must be positive")
	}
	if c.Poll.TickInterval <= 0 {
		return fmt.Errorf("CLOCK_TICK_INTERVAL must be positive")
	}
	return nil
}

// Location resolves the configured timezone, defaulting to the host's.
func (c *Config) Location() (*time.Location, error) {
	if c.App.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
