// Package ws streams coordinator events to WebSocket observers.
//
// Each connection holds its own bus subscription, so banners, install
// buttons, and status panels can attach and detach independently
// without affecting each other's view of state.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - status: Request a fresh state snapshot
//
// Message Types (Server → Client):
//   - status: Coordinator state snapshot (also sent on connect)
//   - installable, update_available, connectivity_changed,
//     permission_changed, record_persisted, sync_flushed: coordinator
//     events as they occur
//
// Example Usage:
//
//	handler := ws.NewHandler(coord, metrics, log)
//	router.GET("/stream", handler.HandleConnection)
package ws
