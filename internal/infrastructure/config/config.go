package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Browser   BrowserConfig
	Storage   StorageConfig
	Surface   SurfaceConfig
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// BrowserConfig holds tab and navigation behavior.
type BrowserConfig struct {
	HomeURL        string   `envconfig:"SOL_HOME_URL" default:"https://www.google.com"`
	SearchURL      string   `envconfig:"SOL_SEARCH_URL" default:"https://www.google.com/search?q="`
	TitleLimit     int      `envconfig:"SOL_TITLE_LIMIT" default:"25"`
	TitleSuffixes  []string `envconfig:"SOL_TITLE_SUFFIXES" default:" - Google Search"`
	ClosedTabLimit int      `envconfig:"SOL_CLOSED_TAB_LIMIT" default:"0"`
}

// StorageConfig holds where persistent data lives.
type StorageConfig struct {
	DataDir string `envconfig:"SOL_DATA_DIR" default:".sol"`
	DBName  string `envconfig:"SOL_DB_NAME" default:"sol.db"`
}

// DBPath returns the sqlite database path.
func (s StorageConfig) DBPath() string {
	return filepath.Join(s.DataDir, s.DBName)
}

// PreferencesPath returns the preferences file path.
func (s StorageConfig) PreferencesPath() string {
	return filepath.Join(s.DataDir, "preferences.toml")
}

// SurfaceConfig selects and tunes the content surface driver.
type SurfaceConfig struct {
	Driver           string        `envconfig:"SOL_SURFACE" default:"headless"`
	RodURL           string        `envconfig:"SOL_ROD_URL"`
	RodHeadless      bool          `envconfig:"SOL_ROD_HEADLESS" default:"true"`
	FailureThreshold int           `envconfig:"SOL_BIND_FAILURE_THRESHOLD" default:"5"`
	Cooldown         time.Duration `envconfig:"SOL_BIND_COOLDOWN" default:"30s"`
}

// ServerConfig holds control API configuration.
type ServerConfig struct {
	Addr string `envconfig:"SOL_ADDR" default:"127.0.0.1:8765"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Surface.Driver != "headless" && cfg.Surface.Driver != "rod" {
		return nil, fmt.Errorf("failed to load config: unknown surface driver %q", cfg.Surface.Driver)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Browser: BrowserConfig{
			HomeURL:       "https://www.google.com",
			SearchURL:     "https://www.google.com/search?q=",
			TitleLimit:    25,
			TitleSuffixes: []string{" - Google Search"},
		},
		Storage: StorageConfig{
			DataDir: ".sol",
			DBName:  "sol.db",
		},
		Surface: SurfaceConfig{
			Driver:           "headless",
			RodHeadless:      true,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
