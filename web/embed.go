// Package web holds the console's HTML templates and static assets, compiled
// into the binary.
package web

import (
	"embed"
	"io/fs"
)

// Templates holds layouts, partials and pages.
//
//go:embed templates/layouts/*.html templates/partials/*.html templates/pages/*.html
var Templates embed.FS

//go:embed static
var static embed.FS

// StaticFiles returns the assets rooted at web/static, as served under /static/.
func StaticFiles() (fs.FS, error) {
	return fs.Sub(static, "static")
}
