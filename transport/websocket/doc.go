// Package websocket provides WebSocket transport for hex tactics matches.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State broadcasting after every change
//   - Client requests that drive turn progression
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a reader and a
// writer goroutine; the hub drops clients whose send buffer fills up.
//
// Message Protocol:
//
// Messages are JSON-encoded, one document per frame:
//   - Incoming: {"action": "tick", "elapsed_ms": 16}, {"action": "end_turn"}, {"action": "auto_turn"}
//   - Outgoing: {"session_id": "ab12cd34", "event": "state_update", "state": {...}}
//
// Incoming requests are handed to the MessageHandler installed with
// SetMessageHandler; the API server uses it to tick the session's director.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Concurrency:
//
// Hub methods are safe for concurrent use. BroadcastToSession delivers
// synchronously; BroadcastEvent queues through the event loop.
package websocket
