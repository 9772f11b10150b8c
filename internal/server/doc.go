// Package server provides the HTTP server for the roster dashboard and API.
//
// This package is internal to roster and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: view model at "/api/state", commands under "/api/search",
//     "/api/pagination" and "/api/reload"
//   - Server-Sent Events: view model stream at "/api/sse"
//   - Metrics: Prometheus exposition at "/metrics"
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the roster library should not need to interact with this
// package directly. The server is started automatically by [roster.Roster.Start]
// when a port is configured.
package server
