// Package embedded provides embedded static assets for the application.
package embedded

import (
	"embed"
)

// Files contains all files embedded in the Go binary:
// - templates/ - html/template pages, one file per page plus layout.html
// - static/    - stylesheet served under /static/
//
//go:embed templates static
var Files embed.FS
