package coordinator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/salih12s/trucksbus-pwa/internal/bus"
	"github.com/salih12s/trucksbus-pwa/internal/config"
	"github.com/salih12s/trucksbus-pwa/internal/install"
	"github.com/salih12s/trucksbus-pwa/internal/lifecycle"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/monitoring"
	"github.com/salih12s/trucksbus-pwa/internal/netwatch"
	"github.com/salih12s/trucksbus-pwa/internal/notify"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
	"github.com/salih12s/trucksbus-pwa/internal/probe"
	"github.com/salih12s/trucksbus-pwa/internal/store"
	"github.com/salih12s/trucksbus-pwa/internal/syncq"
)

// Options configures a coordinator instance.
type Options struct {
	Host    platform.Host
	Store   *store.Store
	Log     *logging.Logger
	Metrics *monitoring.Metrics
	Push    config.PushConfig
	Sync    config.SyncConfig
}

// Snapshot is the observable coordinator state UI collaborators read.
type Snapshot struct {
	Installable     bool                     `json:"installable"`
	UpdateAvailable bool                     `json:"update_available"`
	Online          bool                     `json:"online"`
	Permission      platform.PermissionState `json:"permission"`
	Registration    lifecycle.State          `json:"registration"`
	Connection      netwatch.Status          `json:"connection"`
	SlowConnection  bool                     `json:"slow_connection"`
	PendingSync     []string                 `json:"pending_sync"`
}

// Coordinator composes the offline subsystems into one observable state
// machine. All state transitions happen under one mutex; any number of
// observers may subscribe concurrently.
type Coordinator struct {
	probe     *probe.Probe
	bus       *bus.Bus
	registrar *lifecycle.Registrar
	capture   *install.Capture
	gateway   *notify.Gateway
	monitor   *netwatch.Monitor
	store     *store.Store
	queue     *syncq.Queue
	host      platform.Host
	metrics   *monitoring.Metrics
	log       *logging.Logger

	mu              sync.Mutex
	installable     bool
	updateAvailable bool
	started         bool
}

// New constructs an isolated coordinator instance. Production code goes
// through GetOrCreate; tests construct their own.
func New(opts Options) *Coordinator {
	if opts.Host == nil {
		opts.Host = platform.Noop()
	}
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.New()
	}

	p := probe.New(opts.Host)
	b := bus.New()
	log := opts.Log.Named("coordinator")

	registrar := lifecycle.New(p, opts.Host.Worker(), b, opts.Log)
	capture := install.New(b, opts.Log)
	gateway := notify.New(p, opts.Host.Notifier(), opts.Host.Push(), registrar, b, opts.Log, opts.Push.VAPIDPublicKey)
	monitor := netwatch.New(p, opts.Host.Connection(), b, opts.Log)
	queue := syncq.New(p, opts.Host.Worker(), opts.Log)

	return &Coordinator{
		probe:     p,
		bus:       b,
		registrar: registrar,
		capture:   capture,
		gateway:   gateway,
		monitor:   monitor,
		store:     opts.Store,
		queue:     queue,
		host:      opts.Host,
		metrics:   opts.Metrics,
		log:       log,
	}
}

// Start registers the worker, begins connectivity monitoring, and runs
// the internal event loop until ctx is cancelled. Safe to call once;
// later calls are no-ops.
func (c *Coordinator) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.Register(ctx)
	c.monitor.Start(ctx)
	c.setOnlineMetric(c.monitor.Current().Online)

	events, cancel := c.bus.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				c.observe(ctx, evt)
			}
		}
	}()
}

// observe maintains the derived flags and reacts to connectivity
// transitions. Runs on the single internal event loop goroutine.
func (c *Coordinator) observe(ctx context.Context, evt bus.Event) {
	c.metrics.EventsPublished.WithLabelValues(string(evt.Type)).Inc()

	switch evt.Type {
	case bus.EventInstallable:
		c.mu.Lock()
		c.installable = true
		c.mu.Unlock()
	case bus.EventUpdateAvailable:
		c.mu.Lock()
		c.updateAvailable = true
		c.mu.Unlock()
	case bus.EventConnectivityChanged:
		status, ok := evt.Payload.(netwatch.Status)
		if !ok {
			return
		}
		c.setOnlineMetric(status.Online)
		if status.Online {
			// Connectivity is back: ask the worker context to flush
			// deferred sync jobs.
			go func() {
				if err := c.host.Worker().Replay(ctx); err != nil {
					c.log.Warn("deferred sync replay incomplete", zap.Error(err))
				}
			}()
		}
	case bus.EventSyncFlushed:
		if result, ok := evt.Payload.(syncq.FlushResult); ok {
			c.metrics.RecordsSynced.WithLabelValues(result.Collection).Add(float64(result.Replayed))
			if result.Remaining == 0 {
				c.queue.Release(syncq.TagFor(result.Collection))
			}
		}
	}
}

func (c *Coordinator) setOnlineMetric(online bool) {
	if online {
		c.metrics.Online.Set(1)
	} else {
		c.metrics.Online.Set(0)
	}
}

// Register installs the background worker. Idempotent retry semantics
// live in the registrar.
func (c *Coordinator) Register(ctx context.Context) bool {
	return c.registrar.Register(ctx)
}

// Unregister removes the background worker.
func (c *Coordinator) Unregister(ctx context.Context) bool {
	return c.registrar.Unregister(ctx)
}

// Update applies a waiting worker update; no-op when none is waiting.
// The update-available flag survives a failed activation so the next
// snapshot still reports the waiting worker.
func (c *Coordinator) Update(ctx context.Context) {
	if !c.registrar.ApplyUpdate(ctx) {
		return
	}
	c.mu.Lock()
	c.updateAvailable = false
	c.mu.Unlock()
}

// CaptureInstallOffer stores a host-issued install offer.
func (c *Coordinator) CaptureInstallOffer(offer platform.InstallOffer) {
	c.capture.Capture(offer)
	c.mu.Lock()
	c.installable = true
	c.mu.Unlock()
}

// Install consumes the pending install offer. Exactly one successful
// call is possible per captured offer.
func (c *Coordinator) Install(ctx context.Context) bool {
	accepted := c.capture.Trigger(ctx)

	outcome := "dismissed"
	if accepted {
		outcome = "accepted"
	}
	c.metrics.InstallPrompts.WithLabelValues(outcome).Inc()

	c.mu.Lock()
	c.installable = c.capture.Pending()
	c.mu.Unlock()
	return accepted
}

// RequestNotifications prompts for notification permission and, on a
// fresh grant, registers the push subscription.
func (c *Coordinator) RequestNotifications(ctx context.Context) bool {
	return c.gateway.RequestPermission(ctx) == platform.PermissionGranted
}

// SubscribeToPush registers a push subscription directly.
func (c *Coordinator) SubscribeToPush(ctx context.Context) *platform.PushSubscription {
	return c.gateway.SubscribeToPush(ctx)
}

// Persist durably stores a domain write and schedules its deferred
// replay. Fails fast with store.ErrUnsupported when durable storage is
// absent.
func (c *Coordinator) Persist(ctx context.Context, collection string, data map[string]interface{}) error {
	if !c.probe.Supports(platform.CapDurableStorage) || c.store == nil {
		return store.ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rec, err := c.store.Put(collection, data)
	if err != nil {
		return err
	}

	c.metrics.RecordsPersisted.WithLabelValues(collection).Inc()
	c.bus.Publish(bus.EventRecordPersisted, *rec)

	// Tag registration failure must not fail the durable write.
	if err := c.RegisterDeferredSync(ctx, syncq.TagFor(collection)); err != nil {
		c.log.Warn("deferred sync registration failed after persist",
			zap.String("collection", collection), zap.Error(err))
	}
	return nil
}

// RegisterDeferredSync idempotently registers a replay-later tag. Only
// registrations that actually reach the worker count toward the metric.
func (c *Coordinator) RegisterDeferredSync(ctx context.Context, tag string) error {
	registered, err := c.queue.RegisterTag(ctx, tag)
	if err != nil {
		return err
	}
	if registered {
		c.metrics.SyncTags.Inc()
	}
	return nil
}

// Subscribe attaches an observer to the coordinator's event stream.
func (c *Coordinator) Subscribe() (<-chan bus.Event, func()) {
	return c.bus.Subscribe()
}

// Status returns the observable state snapshot.
func (c *Coordinator) Status() Snapshot {
	conn := c.monitor.Current()

	c.mu.Lock()
	installable := c.installable
	updateAvailable := c.updateAvailable
	c.mu.Unlock()

	return Snapshot{
		Installable:     installable,
		UpdateAvailable: updateAvailable,
		Online:          conn.Online,
		Permission:      c.gateway.Permission(),
		Registration:    c.registrar.State(),
		Connection:      conn,
		SlowConnection:  conn.IsSlow(),
		PendingSync:     c.queue.Pending(),
	}
}

// Probe exposes the capability probe to adapters.
func (c *Coordinator) Probe() *probe.Probe {
	return c.probe
}

// Bus exposes the event bus so the composition root can attach
// collaborators that publish events of their own, such as the flusher.
func (c *Coordinator) Bus() *bus.Bus {
	return c.bus
}
