package netwatch

import (
	"context"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/salih12s/trucksbus-pwa/internal/platform"
)

// Latency buckets for the coarse quality classification.
const (
	lat4G     = 150 * time.Millisecond
	lat3G     = 400 * time.Millisecond
	lat2G     = 1200 * time.Millisecond
	probeWait = 5 * time.Second
)

// Prober implements platform.ConnectionInfo by periodically probing an
// HTTP endpoint and classifying the round-trip latency.
type Prober struct {
	client   *resty.Client
	url      string
	interval time.Duration

	mu      sync.Mutex
	current platform.ConnectionEvent
	changes chan platform.ConnectionEvent
	started bool
}

// NewProber creates a prober. An empty URL yields a prober that reports
// a permanently online, unknown-quality connection.
func NewProber(url string, interval time.Duration) *Prober {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Prober{
		client:   resty.New().SetTimeout(probeWait),
		url:      url,
		interval: interval,
		current:  platform.ConnectionEvent{Online: true, EffectiveType: platform.TypeUnknown},
		changes:  make(chan platform.ConnectionEvent, 16),
	}
}

// Start launches the probe loop.
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.url == "" {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go p.loop(ctx)
}

// Current returns the latest observed connectivity.
func (p *Prober) Current() platform.ConnectionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Changes emits one event per observed transition.
func (p *Prober) Changes() <-chan platform.ConnectionEvent {
	return p.changes
}

func (p *Prober) loop(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.observe(p.probe(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *Prober) probe(ctx context.Context) platform.ConnectionEvent {
	start := time.Now()
	_, err := p.client.R().SetContext(ctx).Head(p.url)
	if err != nil {
		return platform.ConnectionEvent{Online: false, EffectiveType: platform.TypeUnknown}
	}
	return platform.ConnectionEvent{Online: true, EffectiveType: classify(time.Since(start))}
}

func (p *Prober) observe(evt platform.ConnectionEvent) {
	p.mu.Lock()
	if evt == p.current {
		p.mu.Unlock()
		return
	}
	p.current = evt
	p.mu.Unlock()

	select {
	case p.changes <- evt:
	default:
	}
}

func classify(rtt time.Duration) platform.EffectiveType {
	switch {
	case rtt <= lat4G:
		return platform.Type4G
	case rtt <= lat3G:
		return platform.Type3G
	case rtt <= lat2G:
		return platform.Type2G
	default:
		return platform.TypeSlow2G
	}
}
