package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all coordinator configuration.
type Config struct {
	Server       ServerConfig
	Storage      StorageConfig
	Push         PushConfig
	Sync         SyncConfig
	Worker       WorkerConfig
	Connectivity ConnectivityConfig
	Logging      LogConfig
	RateLimit    RateLimitConfig
}

// ServerConfig holds the adapter HTTP server configuration.
type ServerConfig struct {
	Port      string `envconfig:"PORT" default:"8090"`
	Host      string `envconfig:"HOST" default:"0.0.0.0"`
	AssetsDir string `envconfig:"ASSETS_DIR" default:"./web"`
}

// StorageConfig holds the durable offline store configuration.
type StorageConfig struct {
	Path        string `envconfig:"STORAGE_PATH" default:"/tmp/trucksbus-offline/offline.db"`
	Collections string `envconfig:"STORAGE_COLLECTIONS" default:"ads,messages,favorites"`
	Enabled     bool   `envconfig:"STORAGE_ENABLED" default:"true"`
}

// PushConfig holds push-backend configuration.
type PushConfig struct {
	BackendURL     string `envconfig:"PUSH_BACKEND" default:""`
	VAPIDPublicKey string `envconfig:"VAPID_PUBLIC_KEY" default:""`
}

// SyncConfig holds deferred-sync replay configuration.
type SyncConfig struct {
	Endpoint   string        `envconfig:"SYNC_ENDPOINT" default:""`
	MaxRetries int           `envconfig:"SYNC_MAX_RETRIES" default:"4"`
	Timeout    time.Duration `envconfig:"SYNC_TIMEOUT" default:"30s"`
}

// WorkerConfig holds worker runtime configuration.
type WorkerConfig struct {
	Enabled bool   `envconfig:"WORKER_ENABLED" default:"true"`
	Version string `envconfig:"WORKER_VERSION" default:"1.0.0"`
}

// ConnectivityConfig holds connectivity probing configuration.
type ConnectivityConfig struct {
	Enabled  bool          `envconfig:"CONNECTIVITY_ENABLED" default:"true"`
	ProbeURL string        `envconfig:"CONNECTIVITY_PROBE_URL" default:""`
	Interval time.Duration `envconfig:"CONNECTIVITY_INTERVAL" default:"15s"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
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
		Server:       ServerConfig{Port: "8090", Host: "0.0.0.0", AssetsDir: "./web"},
		Storage:      StorageConfig{Path: "/tmp/trucksbus-offline/offline.db", Collections: "ads,messages,favorites", Enabled: true},
		Sync:         SyncConfig{MaxRetries: 4, Timeout: 30 * time.Second},
		Worker:       WorkerConfig{Enabled: true, Version: "1.0.0"},
		Connectivity: ConnectivityConfig{Enabled: true, Interval: 15 * time.Second},
		Logging:      LogConfig{Level: "info"},
		RateLimit:    RateLimitConfig{RequestsPerSecond: 50, Burst: 100, Enabled: true},
	}
}
