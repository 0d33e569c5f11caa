package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "./web", cfg.Server.AssetsDir)

	// Storage config
	assert.Equal(t, "/tmp/trucksbus-offline/offline.db", cfg.Storage.Path)
	assert.Equal(t, "ads,messages,favorites", cfg.Storage.Collections)
	assert.True(t, cfg.Storage.Enabled)

	// Sync config
	assert.Equal(t, 4, cfg.Sync.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Sync.Timeout)

	// Worker config
	assert.True(t, cfg.Worker.Enabled)
	assert.Equal(t, "1.0.0", cfg.Worker.Version)

	// Connectivity config
	assert.True(t, cfg.Connectivity.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Connectivity.Interval)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 50, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 100, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8090", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	// Setup environment variables
	envVars := map[string]string{
		"PORT":                   "9000",
		"HOST":                   "127.0.0.1",
		"ASSETS_DIR":             "/srv/pwa",
		"STORAGE_PATH":           "/var/lib/trucksbus/offline.db",
		"STORAGE_COLLECTIONS":    "ads,messages",
		"STORAGE_ENABLED":        "false",
		"PUSH_BACKEND":           "https://push.trucksbus.com.tr",
		"VAPID_PUBLIC_KEY":       "BPx_test_key",
		"SYNC_ENDPOINT":          "https://api.trucksbus.com.tr/api",
		"SYNC_MAX_RETRIES":       "7",
		"SYNC_TIMEOUT":           "45s",
		"WORKER_ENABLED":         "false",
		"WORKER_VERSION":         "2.1.0",
		"CONNECTIVITY_ENABLED":   "false",
		"CONNECTIVITY_PROBE_URL": "https://api.trucksbus.com.tr/health",
		"CONNECTIVITY_INTERVAL":  "5s",
		"LOG_LEVEL":              "debug",
		"LOG_DEV":                "true",
		"RATE_LIMIT_RPS":         "500",
		"RATE_LIMIT_BURST":       "1000",
		"RATE_LIMIT_ENABLED":     "false",
	}

	// Set environment variables
	for key, value := range envVars {
		err := os.Setenv(key, value)
		require.NoError(t, err)
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	// Verify server config
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "/srv/pwa", cfg.Server.AssetsDir)

	// Verify storage config
	assert.Equal(t, "/var/lib/trucksbus/offline.db", cfg.Storage.Path)
	assert.Equal(t, "ads,messages", cfg.Storage.Collections)
	assert.False(t, cfg.Storage.Enabled)

	// Verify push config
	assert.Equal(t, "https://push.trucksbus.com.tr", cfg.Push.BackendURL)
	assert.Equal(t, "BPx_test_key", cfg.Push.VAPIDPublicKey)

	// Verify sync config
	assert.Equal(t, "https://api.trucksbus.com.tr/api", cfg.Sync.Endpoint)
	assert.Equal(t, 7, cfg.Sync.MaxRetries)
	assert.Equal(t, 45*time.Second, cfg.Sync.Timeout)

	// Verify worker config
	assert.False(t, cfg.Worker.Enabled)
	assert.Equal(t, "2.1.0", cfg.Worker.Version)

	// Verify connectivity config
	assert.False(t, cfg.Connectivity.Enabled)
	assert.Equal(t, "https://api.trucksbus.com.tr/health", cfg.Connectivity.ProbeURL)
	assert.Equal(t, 5*time.Second, cfg.Connectivity.Interval)

	// Verify logging config
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	// Verify rate limit config
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	// Only set some environment variables
	err := os.Setenv("PORT", "3000")
	require.NoError(t, err)
	defer os.Unsetenv("PORT")

	err = os.Setenv("LOG_LEVEL", "warn")
	require.NoError(t, err)
	defer os.Unsetenv("LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	// Verify overridden values
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Verify default values still apply
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "/tmp/trucksbus-offline/offline.db", cfg.Storage.Path)
	assert.Equal(t, 4, cfg.Sync.MaxRetries)
	assert.True(t, cfg.Worker.Enabled)
}

func TestLoadInvalidDuration(t *testing.T) {
	err := os.Setenv("SYNC_TIMEOUT", "not-a-duration")
	require.NoError(t, err)
	defer os.Unsetenv("SYNC_TIMEOUT")

	_, err = Load()
	assert.Error(t, err)
}

func TestLoadOrDefaultFallsBackOnBadEnvironment(t *testing.T) {
	err := os.Setenv("RATE_LIMIT_RPS", "not-a-number")
	require.NoError(t, err)
	defer os.Unsetenv("RATE_LIMIT_RPS")

	cfg := LoadOrDefault()

	// Bad environment falls back to defaults wholesale
	assert.Equal(t, 50, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "8090", cfg.Server.Port)
}
