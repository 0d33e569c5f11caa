// Package server assembles the offline coordinator and its HTTP adapter.
//
// This package is the composition root:
//   - Host surfaces built from config (worker runtime, notifier, push
//     client, connectivity prober, durable store)
//   - Coordinator singleton wired over those surfaces
//   - Flusher installed as the worker's deferred sync handler
//   - Gin router with CORS, rate limiting, and metrics middleware
//   - WebSocket event stream and PWA asset routes
//
// Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger (production or development)
//  3. Open the offline store and build host surfaces
//  4. Create the coordinator and start its event loop
//  5. Serve HTTP until the context is cancelled
//  6. Graceful shutdown, then close the store
package server
