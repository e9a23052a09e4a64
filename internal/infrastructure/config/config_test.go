package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Browser config
	assert.Equal(t, "https://www.google.com", cfg.Browser.HomeURL)
	assert.Equal(t, "https://www.google.com/search?q=", cfg.Browser.SearchURL)
	assert.Equal(t, 25, cfg.Browser.TitleLimit)
	assert.Equal(t, []string{" - Google Search"}, cfg.Browser.TitleSuffixes)
	assert.Zero(t, cfg.Browser.ClosedTabLimit)

	// Surface config
	assert.Equal(t, "headless", cfg.Surface.Driver)
	assert.Equal(t, 5, cfg.Surface.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Surface.Cooldown)

	// Server config
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"SOL_HOME_URL":               "https://start.test",
		"SOL_SEARCH_URL":             "https://duckduckgo.com/?q=",
		"SOL_TITLE_LIMIT":            "40",
		"SOL_TITLE_SUFFIXES":         " - DuckDuckGo, - Wikipedia",
		"SOL_CLOSED_TAB_LIMIT":       "10",
		"SOL_DATA_DIR":               "/var/lib/sol",
		"SOL_DB_NAME":                "state.db",
		"SOL_SURFACE":                "rod",
		"SOL_ROD_URL":                "ws://127.0.0.1:9222",
		"SOL_ROD_HEADLESS":           "false",
		"SOL_BIND_FAILURE_THRESHOLD": "2",
		"SOL_BIND_COOLDOWN":          "1m",
		"SOL_ADDR":                   ":9000",
		"LOG_LEVEL":                  "debug",
		"LOG_DEV":                    "true",
		"RATE_LIMIT_RPS":             "500",
		"RATE_LIMIT_BURST":           "1000",
		"RATE_LIMIT_ENABLED":         "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://start.test", cfg.Browser.HomeURL)
	assert.Equal(t, "https://duckduckgo.com/?q=", cfg.Browser.SearchURL)
	assert.Equal(t, 40, cfg.Browser.TitleLimit)
	assert.Equal(t, []string{" - DuckDuckGo", " - Wikipedia"}, cfg.Browser.TitleSuffixes)
	assert.Equal(t, 10, cfg.Browser.ClosedTabLimit)

	assert.Equal(t, filepath.Join("/var/lib/sol", "state.db"), cfg.Storage.DBPath())
	assert.Equal(t, filepath.Join("/var/lib/sol", "preferences.toml"), cfg.Storage.PreferencesPath())

	assert.Equal(t, "rod", cfg.Surface.Driver)
	assert.Equal(t, "ws://127.0.0.1:9222", cfg.Surface.RodURL)
	assert.False(t, cfg.Surface.RodHeadless)
	assert.Equal(t, 2, cfg.Surface.FailureThreshold)
	assert.Equal(t, time.Minute, cfg.Surface.Cooldown)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	t.Setenv("SOL_ADDR", ":3000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.Logging.Level)

	assert.Equal(t, "headless", cfg.Surface.Driver)
	assert.Equal(t, ".sol", cfg.Storage.DataDir)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown driver", "SOL_SURFACE", "webkit"},
		{"bad duration", "SOL_BIND_COOLDOWN", "soon"},
		{"bad limit", "SOL_TITLE_LIMIT", "wide"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
			assert.Equal(t, Default(), LoadOrDefault())
		})
	}
}

func TestRateLimitConfig(t *testing.T) {
	tests := []struct {
		name        string
		rps         string
		burst       string
		enabled     string
		wantRPS     int
		wantBurst   int
		wantEnabled bool
	}{
		{
			name:        "default values",
			wantRPS:     100,
			wantBurst:   200,
			wantEnabled: true,
		},
		{
			name:        "high limits",
			rps:         "1000",
			burst:       "2000",
			wantRPS:     1000,
			wantBurst:   2000,
			wantEnabled: true,
		},
		{
			name:        "disabled",
			enabled:     "false",
			wantRPS:     100,
			wantBurst:   200,
			wantEnabled: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.rps != "" {
				t.Setenv("RATE_LIMIT_RPS", tt.rps)
			}
			if tt.burst != "" {
				t.Setenv("RATE_LIMIT_BURST", tt.burst)
			}
			if tt.enabled != "" {
				t.Setenv("RATE_LIMIT_ENABLED", tt.enabled)
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantRPS, cfg.RateLimit.RequestsPerSecond)
			assert.Equal(t, tt.wantBurst, cfg.RateLimit.Burst)
			assert.Equal(t, tt.wantEnabled, cfg.RateLimit.Enabled)
		})
	}
}
