package probe

import (
	"testing"

	"github.com/salih12s/trucksbus-pwa/internal/platform"
)

func TestSupports(t *testing.T) {
	p := FromCapabilities(platform.Capabilities{
		platform.CapWorker:         true,
		platform.CapDurableStorage: true,
		platform.CapPush:           false,
	})

	tests := []struct {
		cap  platform.Capability
		want bool
	}{
		{platform.CapWorker, true},
		{platform.CapDurableStorage, true},
		{platform.CapPush, false},
		{platform.CapNotifications, false},
		{platform.CapConnectionInfo, false},
	}

	for _, tt := range tests {
		if got := p.Supports(tt.cap); got != tt.want {
			t.Errorf("Supports(%s) = %v, want %v", tt.cap, got, tt.want)
		}
	}
}

func TestAnswersStableAcrossMutation(t *testing.T) {
	caps := platform.Capabilities{platform.CapWorker: true}
	p := FromCapabilities(caps)

	caps[platform.CapWorker] = false

	if !p.Supports(platform.CapWorker) {
		t.Error("probe answer should not change after construction")
	}
}

func TestNoopHostDeniesEverything(t *testing.T) {
	p := New(platform.Noop())

	for _, c := range []platform.Capability{
		platform.CapWorker,
		platform.CapNotifications,
		platform.CapPush,
		platform.CapConnectionInfo,
		platform.CapDurableStorage,
	} {
		if p.Supports(c) {
			t.Errorf("noop host should not support %s", c)
		}
	}
}
