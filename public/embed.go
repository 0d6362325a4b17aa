// Package public embeds the page templates and static assets.
package public

import (
	"embed"
	"io/fs"
)

//go:embed static/*
var static embed.FS

//go:embed templates/*.tmpl
var templates embed.FS

// StaticFS returns the assets served under /static/.
func StaticFS() (fs.FS, error) {
	return fs.Sub(static, "static")
}

// TemplatesFS returns the html/template sources.
func TemplatesFS() (fs.FS, error) {
	return fs.Sub(templates, "templates")
}
