// Package syncq registers deferred sync tags against the worker and
// replays queued writes when connectivity returns.
package syncq

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
	"github.com/salih12s/trucksbus-pwa/internal/probe"
)

// TagPrefix prepends every collection-derived sync tag.
const TagPrefix = "sync-"

// TagFor returns the deferred sync tag for a collection.
func TagFor(collection string) string {
	return TagPrefix + collection
}

// CollectionFor extracts the collection from a sync tag.
func CollectionFor(tag string) string {
	return strings.TrimPrefix(tag, TagPrefix)
}

// Queue registers replay-later tags with the worker runtime. Tag
// registration is idempotent: an already-registered tag is a no-op, not
// an error, and never produces a duplicate deferred job.
type Queue struct {
	probe   *probe.Probe
	runtime platform.WorkerRuntime
	log     *logging.Logger

	mu   sync.Mutex
	tags map[string]bool
}

// New creates an empty queue.
func New(p *probe.Probe, runtime platform.WorkerRuntime, log *logging.Logger) *Queue {
	return &Queue{
		probe:   p,
		runtime: runtime,
		log:     log.Named("syncq"),
		tags:    make(map[string]bool),
	}
}

// RegisterTag schedules a deferred replay job under tag. Reports
// whether a new registration happened; dedup hits and the
// no-worker-support degradation are quiet no-ops so durable writes
// still succeed.
func (q *Queue) RegisterTag(ctx context.Context, tag string) (bool, error) {
	if tag == "" {
		return false, nil
	}
	if !q.probe.Supports(platform.CapWorker) {
		q.log.Debug("deferred sync not supported, tag skipped", zap.String("tag", tag))
		return false, nil
	}

	q.mu.Lock()
	if q.tags[tag] {
		q.mu.Unlock()
		return false, nil
	}
	q.mu.Unlock()

	if err := q.runtime.RegisterSync(ctx, tag); err != nil {
		q.log.Error("sync tag registration failed", zap.String("tag", tag), zap.Error(err))
		return false, err
	}

	q.mu.Lock()
	q.tags[tag] = true
	q.mu.Unlock()

	q.log.Info("sync tag registered", zap.String("tag", tag))
	return true, nil
}

// Release forgets a tag after its replay completed, so the next durable
// write can schedule a fresh job.
func (q *Queue) Release(tag string) {
	q.mu.Lock()
	delete(q.tags, tag)
	q.mu.Unlock()
}

// Pending returns the currently registered tags.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.tags))
	for tag := range q.tags {
		out = append(out, tag)
	}
	return out
}
