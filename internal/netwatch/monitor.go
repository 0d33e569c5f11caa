// Package netwatch tracks online/offline transitions and connection
// quality classification.
package netwatch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/salih12s/trucksbus-pwa/internal/bus"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
	"github.com/salih12s/trucksbus-pwa/internal/probe"
)

// Status is the current connectivity snapshot. IsSlow is derived from
// the effective type on every read, never stored.
type Status struct {
	Online        bool                   `json:"online"`
	EffectiveType platform.EffectiveType `json:"effective_type"`
}

// IsSlow classifies slow-2g and 2g connections as slow.
func (s Status) IsSlow() bool {
	return s.EffectiveType == platform.TypeSlow2G || s.EffectiveType == platform.Type2G
}

// Monitor maintains the connectivity status and republishes host change
// events, one delivered event per actual transition.
type Monitor struct {
	probe *probe.Probe
	conn  platform.ConnectionInfo
	bus   *bus.Bus
	log   *logging.Logger

	mu      sync.Mutex
	current Status
	started bool
}

// New creates a monitor seeded from the host's current state.
func New(p *probe.Probe, conn platform.ConnectionInfo, b *bus.Bus, log *logging.Logger) *Monitor {
	m := &Monitor{
		probe:   p,
		conn:    conn,
		bus:     b,
		log:     log.Named("netwatch"),
		current: Status{Online: true, EffectiveType: platform.TypeUnknown},
	}
	if p.Supports(platform.CapConnectionInfo) {
		evt := conn.Current()
		m.current = Status{Online: evt.Online, EffectiveType: evt.EffectiveType}
	}
	return m
}

// Start begins consuming host change events. Without connection-info
// support the monitor stays at its static default and emits nothing.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || !m.probe.Supports(platform.CapConnectionInfo) {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go m.watch(ctx)
}

// Current returns the connectivity snapshot synchronously.
func (m *Monitor) Current() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Monitor) watch(ctx context.Context) {
	changes := m.conn.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-changes:
			if !ok {
				return
			}
			next := Status{Online: evt.Online, EffectiveType: evt.EffectiveType}

			m.mu.Lock()
			if next == m.current {
				m.mu.Unlock()
				continue
			}
			m.current = next
			m.mu.Unlock()

			m.log.Info("connectivity changed",
				zap.Bool("online", next.Online),
				zap.String("effective_type", string(next.EffectiveType)))
			m.bus.Publish(bus.EventConnectivityChanged, next)
		}
	}
}
