// Package ws streams snapshot summaries to browser clients over WebSocket.
//
// New(store, interval) creates a Hub. Hub.Run(ctx) broadcasts a "snapshot"
// message every interval until ctx is cancelled, then closes all clients.
// Hub.ServeHTTP upgrades the connection and sends the current summary
// immediately. As a refresh.Observer the Hub also pushes a "refresh" message
// as soon as a cycle finishes.
//
// Message format:
//
//	{
//	  "event": "snapshot" | "refresh",
//	  "data":  { "generation": 3, "networks": 31000, "stats": {...}, "refresh": {...} }
//	}
//
// The upgrader accepts all origins. Mounted at /ws/stream by the server.
package ws
