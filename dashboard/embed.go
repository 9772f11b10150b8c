// Package dashboard provides the embedded web UI assets for Roster.
//
// This package uses Go's embed directive to include the dashboard HTML, CSS,
// and JavaScript at compile time. This enables single-binary deployment
// without external asset files.
//
// The embedded assets are served by the server package at the root path ("/").
// Users of the roster library should not need to interact with this
// package directly.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Directory page with inline CSS and JavaScript
//
// The page renders the view model streamed from /api/sse and posts search
// text, pagination and reload commands back to the /api endpoints.
//
//go:embed assets/*
var Assets embed.FS
