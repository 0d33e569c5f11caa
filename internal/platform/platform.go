package platform

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned by no-op host surfaces.
var ErrUnavailable = errors.New("platform surface unavailable")

// Capability identifies a host surface the coordinator may depend on.
type Capability string

const (
	CapWorker         Capability = "worker"
	CapNotifications  Capability = "notifications"
	CapPush           Capability = "push"
	CapConnectionInfo Capability = "connection_info"
	CapDurableStorage Capability = "durable_storage"
)

// Capabilities is the set of surfaces a host actually provides.
type Capabilities map[Capability]bool

// PermissionState mirrors the host's three-valued notification permission.
type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

// EffectiveType is the coarse connection-quality bucket reported by the host.
type EffectiveType string

const (
	TypeUnknown EffectiveType = "unknown"
	TypeSlow2G  EffectiveType = "slow-2g"
	Type2G      EffectiveType = "2g"
	Type3G      EffectiveType = "3g"
	Type4G      EffectiveType = "4g"
)

// ConnectionEvent is a snapshot of connectivity at the moment the host
// raised a change.
type ConnectionEvent struct {
	Online        bool          `json:"online"`
	EffectiveType EffectiveType `json:"effective_type"`
}

// UpdateInfo announces a new worker version installed and waiting.
type UpdateInfo struct {
	Version string `json:"version"`
}

// PushSubscription is the durable credential produced by a successful
// push registration.
type PushSubscription struct {
	Endpoint  string            `json:"endpoint"`
	Keys      map[string]string `json:"keys"`
	CreatedAt time.Time         `json:"created_at"`
}

// InstallOffer is a single-use installability signal raised by the host.
// Prompt surfaces the host's own install UI and resolves to the user choice.
type InstallOffer struct {
	CapturedAt time.Time
	Prompt     func(ctx context.Context) (accepted bool, err error)
}

// WorkerRuntime is the background worker reachable only through
// asynchronous message passing. The coordinator never shares memory
// with the worker context.
type WorkerRuntime interface {
	// Register installs and activates the worker, returning its version.
	Register(ctx context.Context) (string, error)
	// Unregister removes the worker.
	Unregister(ctx context.Context) error
	// Updates emits once for every newly installed waiting version.
	Updates() <-chan UpdateInfo
	// Activate promotes a waiting worker ("take control now").
	Activate(ctx context.Context) error
	// RegisterSync schedules a deferred replay job under the given tag.
	RegisterSync(ctx context.Context, tag string) error
	// Replay asks the worker to run its pending sync jobs now.
	Replay(ctx context.Context) error
}

// Notifier is the host's notification permission surface.
type Notifier interface {
	Permission() PermissionState
	RequestPermission(ctx context.Context) (PermissionState, error)
}

// PushService registers push subscriptions against the push backend.
type PushService interface {
	Subscribe(ctx context.Context, vapidKey string) (*PushSubscription, error)
}

// ConnectionInfo exposes the host's connectivity surface.
type ConnectionInfo interface {
	Current() ConnectionEvent
	Changes() <-chan ConnectionEvent
}

// Host bundles every surface with the capability set describing which of
// them are real. Components must consult the capability set before
// touching a surface.
type Host interface {
	Capabilities() Capabilities
	Worker() WorkerRuntime
	Notifier() Notifier
	Push() PushService
	Connection() ConnectionInfo
}

type host struct {
	caps   Capabilities
	worker WorkerRuntime
	notif  Notifier
	push   PushService
	conn   ConnectionInfo
}

// NewHost assembles a Host from concrete surfaces. Nil surfaces are
// replaced with safe no-op implementations and excluded from the
// capability set regardless of caps.
func NewHost(caps Capabilities, worker WorkerRuntime, notif Notifier, push PushService, conn ConnectionInfo) Host {
	effective := make(Capabilities, len(caps))
	for c, ok := range caps {
		effective[c] = ok
	}
	if worker == nil {
		worker = noopWorker{}
		effective[CapWorker] = false
	}
	if notif == nil {
		notif = noopNotifier{}
		effective[CapNotifications] = false
	}
	if push == nil {
		push = noopPush{}
		effective[CapPush] = false
	}
	if conn == nil {
		conn = noopConnection{}
		effective[CapConnectionInfo] = false
	}
	return &host{caps: effective, worker: worker, notif: notif, push: push, conn: conn}
}

// Noop returns a host with no capabilities. Every surface degrades to a
// safe negative result.
func Noop() Host {
	return NewHost(Capabilities{}, nil, nil, nil, nil)
}

func (h *host) Capabilities() Capabilities {
	out := make(Capabilities, len(h.caps))
	for c, ok := range h.caps {
		out[c] = ok
	}
	return out
}

func (h *host) Worker() WorkerRuntime      { return h.worker }
func (h *host) Notifier() Notifier         { return h.notif }
func (h *host) Push() PushService          { return h.push }
func (h *host) Connection() ConnectionInfo { return h.conn }
