// Package ws streams window changes to the browser chrome over WebSocket.
//
// A client connects to /windows/:wid/stream and receives the window state,
// then one notification followed by a fresh state for every change.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - state: Full window state
//   - notification: What changed
//   - pong: Reply to ping
//   - closed: The window was torn down; the server closes the stream
//   - error: Reading the state failed
//
// Example Usage:
//
//	handler := ws.NewHandler(windows, metrics, logger)
//	router.GET("/windows/:wid/stream", handler.HandleConnection)
package ws
