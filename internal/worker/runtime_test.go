package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/salih12s/trucksbus-pwa/internal/logging"
)

func TestRegisterReturnsVersion(t *testing.T) {
	r := New("1.0.0", logging.Nop())

	version, err := r.Register(context.Background())
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if version != "1.0.0" {
		t.Errorf("version = %s, want 1.0.0", version)
	}
}

func TestDeployAnnouncesWaitingVersion(t *testing.T) {
	r := New("1.0.0", logging.Nop())
	r.Register(context.Background())

	r.Deploy("1.1.0")

	select {
	case info := <-r.Updates():
		if info.Version != "1.1.0" {
			t.Errorf("announced version = %s", info.Version)
		}
	default:
		t.Fatal("expected update announcement")
	}
}

func TestDeployBeforeRegisterIsSilent(t *testing.T) {
	r := New("1.0.0", logging.Nop())

	r.Deploy("2.0.0")
	select {
	case info := <-r.Updates():
		t.Fatalf("unexpected announcement: %+v", info)
	default:
	}

	version, _ := r.Register(context.Background())
	if version != "2.0.0" {
		t.Errorf("Register should install the deployed version, got %s", version)
	}
}

func TestActivatePromotesWaiting(t *testing.T) {
	r := New("1.0.0", logging.Nop())
	ctx := context.Background()
	r.Register(ctx)
	r.Deploy("1.1.0")

	if err := r.Activate(ctx); err != nil {
		t.Fatalf("Activate failed: %v", err)
	}

	version, _ := r.Register(ctx)
	if version != "1.1.0" {
		t.Errorf("active version = %s, want 1.1.0", version)
	}
}

func TestRegisterSyncDeduplicates(t *testing.T) {
	r := New("1.0.0", logging.Nop())
	ctx := context.Background()
	r.Register(ctx)

	r.RegisterSync(ctx, "sync-ads")
	r.RegisterSync(ctx, "sync-ads")
	r.RegisterSync(ctx, "sync-messages")

	if got := len(r.PendingSync()); got != 2 {
		t.Errorf("pending tags = %d, want 2", got)
	}
}

func TestRegisterSyncRequiresRegistration(t *testing.T) {
	r := New("1.0.0", logging.Nop())

	if err := r.RegisterSync(context.Background(), "sync-ads"); !errors.Is(err, ErrNotRegistered) {
		t.Errorf("err = %v, want ErrNotRegistered", err)
	}
}

func TestReplayConsumesSuccessfulTags(t *testing.T) {
	r := New("1.0.0", logging.Nop())
	ctx := context.Background()
	r.Register(ctx)
	r.RegisterSync(ctx, "sync-ads")
	r.RegisterSync(ctx, "sync-messages")

	var ran []string
	r.SetSyncHandler(func(_ context.Context, tag string) error {
		ran = append(ran, tag)
		if tag == "sync-messages" {
			return errors.New("backend unreachable")
		}
		return nil
	})

	if err := r.Replay(ctx); err == nil {
		t.Error("Replay should surface the failed tag's error")
	}

	if len(ran) != 2 {
		t.Fatalf("handler ran %d times, want 2", len(ran))
	}
	pending := r.PendingSync()
	if len(pending) != 1 || pending[0] != "sync-messages" {
		t.Errorf("pending after replay = %v, want [sync-messages]", pending)
	}
}

func TestReplayKeepsTagsRegisteredMidFlight(t *testing.T) {
	r := New("1.0.0", logging.Nop())
	ctx := context.Background()
	r.Register(ctx)
	r.RegisterSync(ctx, "sync-ads")

	// The handler registers a second tag while the first replays, as a
	// Persist on another collection would during a flush.
	r.SetSyncHandler(func(_ context.Context, tag string) error {
		if tag == "sync-ads" {
			if err := r.RegisterSync(ctx, "sync-messages"); err != nil {
				t.Fatalf("RegisterSync during replay: %v", err)
			}
		}
		return nil
	})

	if err := r.Replay(ctx); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	pending := r.PendingSync()
	if len(pending) != 1 || pending[0] != "sync-messages" {
		t.Errorf("pending after replay = %v, want [sync-messages]", pending)
	}
}
