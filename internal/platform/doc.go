// Package platform abstracts the host surfaces the offline coordinator
// depends on: the background worker, notification permissions, push
// registration, and connectivity information.
//
// Every surface is an interface so the coordinator core stays free of
// feature-detection branching. A Host bundles the surfaces together with
// a Capabilities set describing which of them are real; absent surfaces
// are backed by no-op implementations that degrade to safe negative
// results instead of failing.
//
// Components:
//   - Host: bundle of surfaces plus capability set
//   - WorkerRuntime: async message-passing boundary to the worker context
//   - Notifier: three-valued permission prompt
//   - PushService: push-backend subscription registration
//   - ConnectionInfo: online flag and connection-quality events
//
// Example Usage:
//
//	host := platform.NewHost(caps, runtime, notifier, pushClient, prober)
//	if host.Capabilities()[platform.CapWorker] {
//		version, err := host.Worker().Register(ctx)
//	}
package platform
