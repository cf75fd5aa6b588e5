// Package theme loads a theme from a filesystem and renders its pages.
//
// A theme directory holds theme.yaml, a layout template and one template per
// page under pages/. Each page defines "title" and "content"; the layout
// places them. Static files live under assets/.
package theme

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	manifestFile  = "theme.yaml"
	defaultLayout = "layout.html"
	pagesDir      = "pages"
	assetsDir     = "assets"
)

type Manifest struct {
	Name        string `yaml:"name"`
	Author      string `yaml:"author"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Layout      string `yaml:"layout"`
}

type Theme struct {
	Manifest Manifest
	pages    map[string]*template.Template
	assets   fs.FS
}

// Load parses the theme in dir of fsys. Every page is parsed up front, so a
// template error fails startup instead of a request.
func Load(fsys fs.FS, dir string) (*Theme, error) {
	raw, err := fs.ReadFile(fsys, path.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("read theme manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("parse theme manifest: %w", err)
	}
	if manifest.Name == "" {
		return nil, errors.New("theme manifest has no name")
	}
	if manifest.Layout == "" {
		manifest.Layout = defaultLayout
	}

	layoutSrc, err := fs.ReadFile(fsys, path.Join(dir, manifest.Layout))
	if err != nil {
		return nil, fmt.Errorf("read theme layout: %w", err)
	}
	layout, err := template.New("layout").Parse(string(layoutSrc))
	if err != nil {
		return nil, fmt.Errorf("parse theme layout: %w", err)
	}

	pageFiles, err := fs.Glob(fsys, path.Join(dir, pagesDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("list theme pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		route := strings.TrimSuffix(path.Base(file), ".html")
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", route, err)
		}
		page, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", route, err)
		}
		if _, err := page.New(route).Parse(string(src)); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", route, err)
		}
		pages[route] = page
	}

	assets, err := fs.Sub(fsys, path.Join(dir, assetsDir))
	if err != nil {
		return nil, fmt.Errorf("open theme assets: %w", err)
	}

	return &Theme{Manifest: manifest, pages: pages, assets: assets}, nil
}

// Pages lists the routes the theme can render, sorted.
func (t *Theme) Pages() []string {
	routes := make([]string, 0, len(t.pages))
	for route := range t.pages {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}

func (t *Theme) HasPage(route string) bool {
	_, ok := t.pages[route]
	return ok
}

func (t *Theme) Assets() fs.FS {
	return t.assets
}

// Render executes the page for route into w. Output is buffered so a
// template error never leaves a half-written response.
func (t *Theme) Render(w io.Writer, route string, data PageData) error {
	page, ok := t.pages[route]
	if !ok {
		return fmt.Errorf("theme %s has no page %q", t.Manifest.Name, route)
	}

	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("render page %s: %w", route, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write page %s: %w", route, err)
	}
	return nil
}
