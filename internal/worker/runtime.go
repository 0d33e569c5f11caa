// Package worker is the in-process background worker runtime: a
// logically separate context that installs worker versions, runs
// deferred sync jobs, and is reachable only through its method surface.
package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
)

// ErrNotRegistered is returned for operations that need an installed
// worker.
var ErrNotRegistered = errors.New("worker not registered")

// SyncHandler runs one deferred sync job. A nil error consumes the tag.
type SyncHandler func(ctx context.Context, tag string) error

// Runtime implements platform.WorkerRuntime. Deploy simulates the host
// shipping a new worker script version while a controller exists.
type Runtime struct {
	log *logging.Logger

	mu         sync.Mutex
	registered bool
	version    string
	waiting    string
	pending    []string
	handler    SyncHandler
	updates    chan platform.UpdateInfo
}

// New creates a runtime that will install the given script version.
func New(version string, log *logging.Logger) *Runtime {
	return &Runtime{
		log:     log.Named("worker"),
		version: version,
		updates: make(chan platform.UpdateInfo, 8),
	}
}

// SetSyncHandler installs the replay routine invoked for deferred tags.
func (r *Runtime) SetSyncHandler(h SyncHandler) {
	r.mu.Lock()
	r.handler = h
	r.mu.Unlock()
}

// Register installs and activates the worker, returning its version.
func (r *Runtime) Register(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = true
	r.log.Info("worker installed", zap.String("version", r.version))
	return r.version, nil
}

// Unregister removes the worker and forgets pending jobs.
func (r *Runtime) Unregister(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.registered {
		return ErrNotRegistered
	}
	r.registered = false
	r.waiting = ""
	r.pending = nil
	return nil
}

// Updates announces newly waiting versions.
func (r *Runtime) Updates() <-chan platform.UpdateInfo {
	return r.updates
}

// Deploy installs a new script version. With a controller already in
// place the version goes to waiting and is announced; without one it
// becomes the version the next Register installs.
func (r *Runtime) Deploy(version string) {
	r.mu.Lock()
	if !r.registered {
		r.version = version
		r.mu.Unlock()
		return
	}
	if version == r.version {
		r.mu.Unlock()
		return
	}
	r.waiting = version
	r.mu.Unlock()

	r.log.Info("new worker version waiting", zap.String("version", version))
	select {
	case r.updates <- platform.UpdateInfo{Version: version}:
	default:
	}
}

// Activate promotes the waiting version ("skip waiting").
func (r *Runtime) Activate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.registered {
		return ErrNotRegistered
	}
	if r.waiting == "" {
		return nil
	}
	r.version = r.waiting
	r.waiting = ""
	r.log.Info("worker took control", zap.String("version", r.version))
	return nil
}

// RegisterSync queues a deferred job. Re-registering a queued tag is a
// no-op.
func (r *Runtime) RegisterSync(ctx context.Context, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.registered {
		return ErrNotRegistered
	}
	for _, existing := range r.pending {
		if existing == tag {
			return nil
		}
	}
	r.pending = append(r.pending, tag)
	return nil
}

// Replay runs the sync handler for every pending tag, in registration
// order. Tags whose handler succeeds are consumed; failures stay queued
// for the next replay.
func (r *Runtime) Replay(ctx context.Context) error {
	r.mu.Lock()
	handler := r.handler
	tags := append([]string(nil), r.pending...)
	r.mu.Unlock()

	if handler == nil || len(tags) == 0 {
		return nil
	}

	kept := make([]string, 0, len(tags))
	var firstErr error
	for _, tag := range tags {
		if err := handler(ctx, tag); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			kept = append(kept, tag)
			continue
		}
	}

	// Tags registered while the handlers ran are not in the snapshot;
	// carry them over or they would be dropped unreplayed.
	snapshot := make(map[string]bool, len(tags))
	for _, tag := range tags {
		snapshot[tag] = true
	}

	r.mu.Lock()
	if !r.registered {
		// Unregistered mid-replay; its queue is already forgotten.
		r.mu.Unlock()
		return firstErr
	}
	for _, tag := range r.pending {
		if !snapshot[tag] {
			kept = append(kept, tag)
		}
	}
	r.pending = kept
	r.mu.Unlock()
	return firstErr
}

// PendingSync returns the queued tags.
func (r *Runtime) PendingSync() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.pending...)
}
