// Package config provides 12-factor configuration management for the
// offline coordinator.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP adapter settings (port, host, PWA assets directory)
//   - Storage: durable offline store (bbolt path, collections)
//   - Push: push backend URL and VAPID public key
//   - Sync: deferred replay endpoint and retry policy
//   - Worker: local worker runtime toggle and version
//   - Connectivity: probe URL and interval
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Coordinator on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, ASSETS_DIR
//   - STORAGE_PATH, STORAGE_COLLECTIONS, STORAGE_ENABLED
//   - PUSH_BACKEND, VAPID_PUBLIC_KEY
//   - SYNC_ENDPOINT, SYNC_MAX_RETRIES, SYNC_TIMEOUT
//   - WORKER_ENABLED, WORKER_VERSION
//   - CONNECTIVITY_ENABLED, CONNECTIVITY_PROBE_URL, CONNECTIVITY_INTERVAL
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
