// Package lifecycle owns the background worker registration state
// machine. Transitions are driven only by worker runtime callbacks,
// never by UI code.
package lifecycle

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/salih12s/trucksbus-pwa/internal/bus"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
	"github.com/salih12s/trucksbus-pwa/internal/probe"
)

// State is the worker registration state.
type State string

const (
	StateUnregistered  State = "unregistered"
	StateRegistering   State = "registering"
	StateRegistered    State = "registered"
	StateUpdateWaiting State = "update_waiting"
	StateActivated     State = "activated"
	StateFailed        State = "failed"
)

// Registrar registers the worker, observes its version transitions, and
// raises one update-available event per newly waiting version.
type Registrar struct {
	probe   *probe.Probe
	runtime platform.WorkerRuntime
	bus     *bus.Bus
	log     *logging.Logger

	mu       sync.Mutex
	state    State
	version  string
	waiting  string
	notified map[string]bool
	watching bool
}

// New creates a registrar in the Unregistered state.
func New(p *probe.Probe, runtime platform.WorkerRuntime, b *bus.Bus, log *logging.Logger) *Registrar {
	return &Registrar{
		probe:    p,
		runtime:  runtime,
		bus:      b,
		log:      log.Named("lifecycle"),
		state:    StateUnregistered,
		notified: make(map[string]bool),
	}
}

// Register installs the worker. Returns false without error when the
// host has no worker support or registration fails; calling it again is
// a valid retry.
func (r *Registrar) Register(ctx context.Context) bool {
	if !r.probe.Supports(platform.CapWorker) {
		r.log.Info("worker not supported, skipping registration")
		return false
	}

	r.mu.Lock()
	if r.state == StateRegistered || r.state == StateActivated || r.state == StateUpdateWaiting {
		r.mu.Unlock()
		return true
	}
	r.state = StateRegistering
	r.mu.Unlock()

	version, err := r.runtime.Register(ctx)
	if err != nil {
		r.mu.Lock()
		r.state = StateFailed
		r.mu.Unlock()
		r.log.Error("worker registration failed", zap.Error(err))
		return false
	}

	r.mu.Lock()
	r.state = StateRegistered
	r.version = version
	if !r.watching {
		r.watching = true
		go r.watchUpdates()
	}
	r.mu.Unlock()

	r.log.Info("worker registered", zap.String("version", version))
	return true
}

// Unregister removes the worker and resets to Unregistered.
func (r *Registrar) Unregister(ctx context.Context) bool {
	if !r.probe.Supports(platform.CapWorker) {
		return false
	}
	if err := r.runtime.Unregister(ctx); err != nil {
		r.log.Error("worker unregistration failed", zap.Error(err))
		return false
	}

	r.mu.Lock()
	r.state = StateUnregistered
	r.version = ""
	r.waiting = ""
	r.notified = make(map[string]bool)
	r.mu.Unlock()

	r.log.Info("worker unregistered")
	return true
}

// ApplyUpdate promotes a waiting worker and marks the registration
// activated. Reports whether the update was applied; no-op unless a
// worker is waiting.
func (r *Registrar) ApplyUpdate(ctx context.Context) bool {
	r.mu.Lock()
	if r.state != StateUpdateWaiting {
		r.mu.Unlock()
		return false
	}
	waiting := r.waiting
	r.mu.Unlock()

	if err := r.runtime.Activate(ctx); err != nil {
		r.log.Error("worker activation failed", zap.Error(err))
		return false
	}

	r.mu.Lock()
	r.state = StateActivated
	r.version = waiting
	r.waiting = ""
	r.mu.Unlock()

	r.log.Info("worker update applied", zap.String("version", waiting))
	return true
}

// State returns the current registration state.
func (r *Registrar) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Version returns the controlling worker version, if any.
func (r *Registrar) Version() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

// watchUpdates consumes runtime update announcements for the life of the
// process. The runtime may announce the same waiting version repeatedly;
// exactly one update-available event is published per version.
func (r *Registrar) watchUpdates() {
	for info := range r.runtime.Updates() {
		r.mu.Lock()
		controlled := r.state == StateRegistered || r.state == StateActivated || r.state == StateUpdateWaiting
		if !controlled || r.notified[info.Version] {
			r.mu.Unlock()
			continue
		}
		r.notified[info.Version] = true
		r.waiting = info.Version
		r.state = StateUpdateWaiting
		r.mu.Unlock()

		r.log.Info("worker update waiting", zap.String("version", info.Version))
		r.bus.Publish(bus.EventUpdateAvailable, platform.UpdateInfo{Version: info.Version})
	}
}
