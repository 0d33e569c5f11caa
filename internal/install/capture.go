// Package install captures the host's single-use installability offer
// and enforces one-shot consumption.
package install

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/salih12s/trucksbus-pwa/internal/bus"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
)

type offerState int

const (
	noOffer offerState = iota
	offered
	consumed
)

// Capture holds at most one pending install offer. Offers are never
// persisted; every process start begins with no offer.
type Capture struct {
	bus *bus.Bus
	log *logging.Logger

	mu    sync.Mutex
	state offerState
	offer *platform.InstallOffer
}

// New creates an empty capture.
func New(b *bus.Bus, log *logging.Logger) *Capture {
	return &Capture{bus: b, log: log.Named("install")}
}

// Capture stores a host-issued offer and publishes an installable
// event. A new offer replaces any pending one; each host occurrence
// yields one event.
func (c *Capture) Capture(offer platform.InstallOffer) {
	if offer.CapturedAt.IsZero() {
		offer.CapturedAt = time.Now()
	}

	c.mu.Lock()
	c.state = offered
	c.offer = &offer
	c.mu.Unlock()

	c.log.Info("install offer captured", zap.Time("captured_at", offer.CapturedAt))
	c.bus.Publish(bus.EventInstallable, map[string]interface{}{
		"captured_at": offer.CapturedAt,
	})
}

// Trigger prompts the host with the pending offer. The offer is marked
// consumed before the prompt is awaited, so a second concurrent call
// cannot reuse it. Returns false outside the Offered state or when the
// user declines.
func (c *Capture) Trigger(ctx context.Context) bool {
	c.mu.Lock()
	if c.state != offered || c.offer == nil {
		c.mu.Unlock()
		c.log.Debug("install trigger with no pending offer")
		return false
	}
	offer := c.offer
	c.state = consumed
	c.offer = nil
	c.mu.Unlock()

	if offer.Prompt == nil {
		return false
	}
	accepted, err := offer.Prompt(ctx)
	if err != nil {
		c.log.Error("install prompt failed", zap.Error(err))
		return false
	}

	c.log.Info("install prompt resolved", zap.Bool("accepted", accepted))
	return accepted
}

// Pending reports whether an unconsumed offer is held.
func (c *Capture) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == offered
}
