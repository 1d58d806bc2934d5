// Package server provides the HTTP server for the local InfoPulse view.
//
// This package is internal to InfoPulse and handles all HTTP concerns:
//
//   - Page serving: Serves the embedded HTML view at "/"
//   - REST API: JSON state at "/api/state", click action at "/api/click"
//   - Text view: the plain render at "/api/view"
//   - Server-Sent Events: Real-time state changes at "/api/sse"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the infopulse library should not need to interact with this
// package directly. The server is started by [infopulse.Board.Start] when a
// port is configured.
package server
