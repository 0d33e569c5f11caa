// Package notify requests notification permission and maintains the
// push subscription.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/salih12s/trucksbus-pwa/internal/bus"
	"github.com/salih12s/trucksbus-pwa/internal/lifecycle"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
	"github.com/salih12s/trucksbus-pwa/internal/probe"
)

// Gateway mediates the host permission prompt and push registration.
// Permission and subscription are independent facts: a failed
// subscription never rolls back a grant.
type Gateway struct {
	probe     *probe.Probe
	notifier  platform.Notifier
	push      platform.PushService
	registrar *lifecycle.Registrar
	bus       *bus.Bus
	log       *logging.Logger
	vapidKey  string

	mu  sync.Mutex
	sub *platform.PushSubscription
}

// New creates a gateway.
func New(p *probe.Probe, notifier platform.Notifier, push platform.PushService, registrar *lifecycle.Registrar, b *bus.Bus, log *logging.Logger, vapidKey string) *Gateway {
	return &Gateway{
		probe:     p,
		notifier:  notifier,
		push:      push,
		registrar: registrar,
		bus:       b,
		log:       log.Named("notify"),
		vapidKey:  vapidKey,
	}
}

// RequestPermission prompts the host for notification permission. An
// existing grant returns immediately with zero additional prompts; a
// denial is surfaced as Denied without retry. A fresh grant attempts
// push subscription automatically.
func (g *Gateway) RequestPermission(ctx context.Context) platform.PermissionState {
	if !g.probe.Supports(platform.CapNotifications) {
		g.log.Info("notifications not supported")
		return platform.PermissionDenied
	}

	switch current := g.notifier.Permission(); current {
	case platform.PermissionGranted:
		return platform.PermissionGranted
	case platform.PermissionDenied:
		// The host refuses to re-prompt a denied permission.
		return platform.PermissionDenied
	}

	state, err := g.notifier.RequestPermission(ctx)
	if err != nil {
		g.log.Error("permission request failed", zap.Error(err))
		return platform.PermissionDenied
	}

	g.log.Info("permission resolved", zap.String("state", string(state)))
	g.bus.Publish(bus.EventPermissionChanged, state)

	if state == platform.PermissionGranted {
		if sub := g.SubscribeToPush(ctx); sub == nil {
			g.log.Warn("push subscription failed after grant")
		}
	}
	return state
}

// Permission returns the host's current permission state.
func (g *Gateway) Permission() platform.PermissionState {
	if !g.probe.Supports(platform.CapNotifications) {
		return platform.PermissionDenied
	}
	return g.notifier.Permission()
}

// SubscribeToPush registers a push subscription. Requires push support
// and a registered worker; returns nil and logs on any precondition
// failure or host rejection.
func (g *Gateway) SubscribeToPush(ctx context.Context) *platform.PushSubscription {
	if !g.probe.Supports(platform.CapPush) {
		g.log.Debug("push not supported")
		return nil
	}

	switch g.registrar.State() {
	case lifecycle.StateRegistered, lifecycle.StateUpdateWaiting, lifecycle.StateActivated:
	default:
		g.log.Debug("push subscription requires a registered worker",
			zap.String("state", string(g.registrar.State())))
		return nil
	}

	sub, err := g.push.Subscribe(ctx, g.vapidKey)
	if err != nil {
		g.log.Error("push subscription rejected", zap.Error(err))
		return nil
	}

	g.mu.Lock()
	g.sub = sub
	g.mu.Unlock()

	g.log.Info("push subscription created", zap.String("endpoint", sub.Endpoint))
	return sub
}

// Subscription returns the current push subscription, if any.
func (g *Gateway) Subscription() *platform.PushSubscription {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sub
}
