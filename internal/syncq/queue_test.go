package syncq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salih12s/trucksbus-pwa/internal/bus"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/platform"
	"github.com/salih12s/trucksbus-pwa/internal/probe"
	"github.com/salih12s/trucksbus-pwa/internal/store"
)

type countingRuntime struct {
	registrations int32
}

func (c *countingRuntime) Register(context.Context) (string, error) { return "1.0.0", nil }
func (c *countingRuntime) Unregister(context.Context) error         { return nil }
func (c *countingRuntime) Updates() <-chan platform.UpdateInfo      { return nil }
func (c *countingRuntime) Activate(context.Context) error           { return nil }
func (c *countingRuntime) Replay(context.Context) error             { return nil }

func (c *countingRuntime) RegisterSync(context.Context, string) error {
	atomic.AddInt32(&c.registrations, 1)
	return nil
}

func TestTagNames(t *testing.T) {
	assert.Equal(t, "sync-ads", TagFor("ads"))
	assert.Equal(t, "ads", CollectionFor("sync-ads"))
}

func TestIdempotentRegistration(t *testing.T) {
	rt := &countingRuntime{}
	p := probe.FromCapabilities(platform.Capabilities{platform.CapWorker: true})
	q := New(p, rt, logging.Nop())
	ctx := context.Background()

	registered, err := q.RegisterTag(ctx, "sync-ads")
	require.NoError(t, err)
	assert.True(t, registered)

	for i := 0; i < 2; i++ {
		registered, err = q.RegisterTag(ctx, "sync-ads")
		require.NoError(t, err)
		assert.False(t, registered, "duplicate registration must report false")
	}

	assert.Equal(t, int32(1), rt.registrations, "same tag twice must not create duplicate jobs")
	assert.Equal(t, []string{"sync-ads"}, q.Pending())
}

func TestReleaseAllowsReRegistration(t *testing.T) {
	rt := &countingRuntime{}
	p := probe.FromCapabilities(platform.Capabilities{platform.CapWorker: true})
	q := New(p, rt, logging.Nop())
	ctx := context.Background()

	registered, err := q.RegisterTag(ctx, "sync-ads")
	require.NoError(t, err)
	assert.True(t, registered)

	q.Release("sync-ads")

	registered, err = q.RegisterTag(ctx, "sync-ads")
	require.NoError(t, err)
	assert.True(t, registered, "a released tag registers fresh")

	assert.Equal(t, int32(2), rt.registrations)
}

func TestNoWorkerSupportIsQuietNoOp(t *testing.T) {
	rt := &countingRuntime{}
	q := New(probe.FromCapabilities(platform.Capabilities{}), rt, logging.Nop())

	registered, err := q.RegisterTag(context.Background(), "sync-ads")
	require.NoError(t, err)
	assert.False(t, registered)
	assert.Zero(t, rt.registrations)
	assert.Empty(t, q.Pending())
}

func TestFlushMarksReplayedRecordsSynced(t *testing.T) {
	var received int32
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ads", r.URL.Path)
		require.NotEmpty(t, r.Header.Get("X-Offline-Record"))
		atomic.AddInt32(&received, 1)
		w.WriteHeader(http.StatusCreated)
	}))
	defer backend.Close()

	s, err := store.Open(filepath.Join(t.TempDir(), "offline.db"), []string{"ads"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Put("ads", map[string]interface{}{"title": "Volvo FH16"})
	require.NoError(t, err)
	_, err = s.Put("ads", map[string]interface{}{"title": "Scania R500"})
	require.NoError(t, err)

	b := bus.New()
	events, cancel := b.Subscribe()
	defer cancel()

	f := NewFlusher(s, backend.URL, 1, b, logging.Nop())
	require.NoError(t, f.Flush(context.Background(), "sync-ads"))

	assert.Equal(t, int32(2), atomic.LoadInt32(&received))

	remaining, err := s.Unsynced("ads")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	evt := <-events
	assert.Equal(t, bus.EventSyncFlushed, evt.Type)
	result := evt.Payload.(FlushResult)
	assert.Equal(t, 2, result.Replayed)
	assert.Zero(t, result.Remaining)
}

func TestFlushKeepsRecordsOnBackendFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity) // non-retryable
	}))
	defer backend.Close()

	s, err := store.Open(filepath.Join(t.TempDir(), "offline.db"), []string{"ads"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Put("ads", map[string]interface{}{"title": "MAN TGX"})
	require.NoError(t, err)

	f := NewFlusher(s, backend.URL, 0, bus.New(), logging.Nop())
	assert.Error(t, f.Flush(context.Background(), "sync-ads"))

	remaining, err := s.Unsynced("ads")
	require.NoError(t, err)
	assert.Len(t, remaining, 1, "failed replays must stay queued")
}
