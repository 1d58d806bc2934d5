// Package dashboard provides the embedded web view assets for InfoPulse.
//
// The embedded assets are served by the server package at the root path ("/").
// Users of the infopulse library should not need to interact with this
// package directly.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the web view.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - View page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
