package platform

import "context"

// No-op surfaces backing the fallback host. They never fail loudly; the
// capability set already tells callers the surface is absent.

type noopWorker struct{}

func (noopWorker) Register(context.Context) (string, error)   { return "", ErrUnavailable }
func (noopWorker) Unregister(context.Context) error           { return ErrUnavailable }
func (noopWorker) Updates() <-chan UpdateInfo                 { return nil }
func (noopWorker) Activate(context.Context) error             { return ErrUnavailable }
func (noopWorker) RegisterSync(context.Context, string) error { return ErrUnavailable }
func (noopWorker) Replay(context.Context) error               { return nil }

type noopNotifier struct{}

func (noopNotifier) Permission() PermissionState { return PermissionDenied }
func (noopNotifier) RequestPermission(context.Context) (PermissionState, error) {
	return PermissionDenied, nil
}

type noopPush struct{}

func (noopPush) Subscribe(context.Context, string) (*PushSubscription, error) {
	return nil, ErrUnavailable
}

type noopConnection struct{}

func (noopConnection) Current() ConnectionEvent {
	return ConnectionEvent{Online: true, EffectiveType: TypeUnknown}
}

func (noopConnection) Changes() <-chan ConnectionEvent { return nil }
