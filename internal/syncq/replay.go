package syncq

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/salih12s/trucksbus-pwa/internal/bus"
	"github.com/salih12s/trucksbus-pwa/internal/logging"
	"github.com/salih12s/trucksbus-pwa/internal/store"
)

// FlushResult summarizes one replay pass for a collection.
type FlushResult struct {
	Collection string `json:"collection"`
	Replayed   int    `json:"replayed"`
	Remaining  int    `json:"remaining"`
}

// Flusher replays unsynced records to the backend API. It runs in the
// worker context, invoked through deferred sync tags.
type Flusher struct {
	store    *store.Store
	client   *retryablehttp.Client
	endpoint string
	bus      *bus.Bus
	log      *logging.Logger
}

// NewFlusher creates a flusher posting to endpoint/<collection>.
func NewFlusher(s *store.Store, endpoint string, maxRetries int, b *bus.Bus, log *logging.Logger) *Flusher {
	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries
	client.Logger = nil

	return &Flusher{
		store:    s,
		client:   client,
		endpoint: endpoint,
		bus:      b,
		log:      log.Named("flush"),
	}
}

// Flush replays every unsynced record for the tag's collection. Records
// that reach the backend are marked synced; the rest stay queued for the
// next pass.
func (f *Flusher) Flush(ctx context.Context, tag string) error {
	collection := CollectionFor(tag)
	records, err := f.store.Unsynced(collection)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	var replayed []string
	for _, rec := range records {
		if err := f.replay(ctx, collection, rec); err != nil {
			f.log.Warn("record replay failed",
				zap.String("collection", collection),
				zap.String("record_id", rec.ID),
				zap.Error(err))
			break // keep write order, retry the rest on the next pass
		}
		replayed = append(replayed, rec.ID)
	}

	if len(replayed) > 0 {
		if err := f.store.MarkSynced(collection, replayed); err != nil {
			return err
		}
	}

	result := FlushResult{
		Collection: collection,
		Replayed:   len(replayed),
		Remaining:  len(records) - len(replayed),
	}
	f.log.Info("sync flush finished",
		zap.String("collection", collection),
		zap.Int("replayed", result.Replayed),
		zap.Int("remaining", result.Remaining))
	f.bus.Publish(bus.EventSyncFlushed, result)

	if result.Remaining > 0 {
		return fmt.Errorf("%d records still unsynced in %s", result.Remaining, collection)
	}
	return nil
}

func (f *Flusher) replay(ctx context.Context, collection string, rec store.Record) error {
	body, err := sonic.Marshal(rec.Payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s", f.endpoint, collection)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Offline-Record", rec.ID)

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("backend rejected replay: %s", resp.Status)
	}
	return nil
}
