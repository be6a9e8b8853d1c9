// Package webui serves the minimal built-in browser page for inspecting
// the book collection. The assets are embedded so the binary stays
// self-contained.
package webui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// Handler serves the UI assets. Mount it under a stripped prefix, e.g.
// http.StripPrefix("/ui", webui.Handler()).
func Handler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The embedded tree always contains static/; reaching this means the
		// binary itself is broken.
		panic(err)
	}
	return http.FileServerFS(sub)
}
