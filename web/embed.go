// Package web holds the dashboard templates and static assets.
package web

import "embed"

// EmbeddedFS contains templates/ and static/. It backs release builds; debug
// mode reads the same tree from disk.
//
//go:embed templates static
var EmbeddedFS embed.FS
