package web

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
)

// LayoutTemplate wraps every page template.
const LayoutTemplate = "layout.html"

//go:embed static templates
var content embed.FS

// StaticFS returns the static asset file system served under /static/.
func StaticFS() (fs.FS, error) {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		return nil, fmt.Errorf("static sub-filesystem: %w", err)
	}
	return sub, nil
}

// TemplatesFS returns the templates file system.
func TemplatesFS() (fs.FS, error) {
	sub, err := fs.Sub(content, "templates")
	if err != nil {
		return nil, fmt.Errorf("templates sub-filesystem: %w", err)
	}
	return sub, nil
}

// Pages lists the page templates, every .html file except the layout.
func Pages(tfs fs.FS) ([]string, error) {
	names, err := fs.Glob(tfs, "*.html")
	if err != nil {
		return nil, err
	}
	pages := names[:0]
	for _, name := range names {
		if path.Base(name) != LayoutTemplate {
			pages = append(pages, name)
		}
	}
	return pages, nil
}
