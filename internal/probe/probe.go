// Package probe consolidates host feature detection behind one interface.
package probe

import "github.com/salih12s/trucksbus-pwa/internal/platform"

// Probe answers capability questions for one session. Answers are
// snapshotted at construction so they stay stable even if the host
// mutates its set later.
type Probe struct {
	caps platform.Capabilities
}

// New snapshots the host's capability set.
func New(host platform.Host) *Probe {
	return &Probe{caps: host.Capabilities()}
}

// FromCapabilities builds a probe from an explicit set. Used by tests
// and by hosts assembled piecemeal.
func FromCapabilities(caps platform.Capabilities) *Probe {
	snapshot := make(platform.Capabilities, len(caps))
	for c, ok := range caps {
		snapshot[c] = ok
	}
	return &Probe{caps: snapshot}
}

// Supports reports whether the host provides the capability. Pure and
// synchronous; callable any number of times.
func (p *Probe) Supports(c platform.Capability) bool {
	return p.caps[c]
}

// Snapshot returns a copy of the full capability set.
func (p *Probe) Snapshot() platform.Capabilities {
	out := make(platform.Capabilities, len(p.caps))
	for c, ok := range p.caps {
		out[c] = ok
	}
	return out
}
