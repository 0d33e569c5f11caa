// Package coordinator composes the offline subsystems into one
// process-wide facade: worker lifecycle, install offers, notification
// permission, connectivity, durable storage, and deferred sync.
//
// The facade republishes the subsystems' signals as a small set of
// observable events (installable, update_available,
// connectivity_changed, permission_changed, record_persisted,
// sync_flushed) and exposes the operations UI collaborators call:
// Install, Update, RequestNotifications, Persist, RegisterDeferredSync.
//
// One instance serves the whole process. GetOrCreate constructs it on
// first access; New exists so tests can build isolated instances.
//
// Example Usage:
//
//	coord := coordinator.GetOrCreate(coordinator.Options{Host: host, Store: st})
//	coord.Start(ctx)
//	events, cancel := coord.Subscribe()
//	defer cancel()
package coordinator
