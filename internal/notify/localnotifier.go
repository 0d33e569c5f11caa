package notify

import (
	"context"
	"sync"

	"github.com/salih12s/trucksbus-pwa/internal/platform"
)

// LocalNotifier implements platform.Notifier for hosts without a real
// permission surface. The first prompt resolves according to grant; a
// denial is final, matching host semantics.
type LocalNotifier struct {
	mu    sync.Mutex
	state platform.PermissionState
	grant bool
}

// NewLocalNotifier starts in the given state.
func NewLocalNotifier(initial platform.PermissionState, grant bool) *LocalNotifier {
	if initial == "" {
		initial = platform.PermissionDefault
	}
	return &LocalNotifier{state: initial, grant: grant}
}

// Permission returns the current state.
func (n *LocalNotifier) Permission() platform.PermissionState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// RequestPermission resolves a Default state to Granted or Denied.
// Resolved states never change again.
func (n *LocalNotifier) RequestPermission(ctx context.Context) (platform.PermissionState, error) {
	if err := ctx.Err(); err != nil {
		return platform.PermissionDenied, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != platform.PermissionDefault {
		return n.state, nil
	}
	if n.grant {
		n.state = platform.PermissionGranted
	} else {
		n.state = platform.PermissionDenied
	}
	return n.state, nil
}
