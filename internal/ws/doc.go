// Package ws streams search results over WebSocket.
//
// A search over a large tree can produce thousands of matches. Instead of
// collecting them into one response, the handler sends each match as its own
// frame as the walk finds it, so a client can render early results and
// cancel the rest.
//
// Features:
//   - One session ID per connection, used as the actor when no X-Actor header is sent
//   - At most one running search per connection
//   - Cancellation from the client and a per-search timeout
//   - Same whitelist, policy and audit path as the search_files tool
//
// Message Types (Client → Server):
//   - search: Start a search; params as for search_files
//   - cancel: Stop the running search
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - connected: Session opened, carries session_id
//   - match: One matching line
//   - complete: Search finished, carries count and truncated
//   - cancelled: Search stopped by the client
//   - pong: Reply to ping
//   - error: Request failed, carries kind and outcome when known
//
// Example Usage:
//
//	handler := ws.NewHandler(fileService, ws.WithMetrics(metrics))
//	router.GET("/ws/search", handler.HandleConnection)
package ws
