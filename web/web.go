// Package web holds the HTML templates and static assets of the blog.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names accepted by Pages.Render.
const (
	PageHome  = "home"
	PagePost  = "post"
	PageError = "error"
)

// Pages renders the blog's HTML pages. Each page is parsed together with the
// shared layout into its own template set.
type Pages struct {
	pages map[string]*template.Template
}

// LoadPages parses every page for a blog mounted at baseURL.
func LoadPages(baseURL string) (*Pages, error) {
	funcs := Funcs(baseURL)

	p := &Pages{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageHome, PagePost, PageError} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		p.pages[name] = t
	}
	return p, nil
}

// Render executes the named page into w. Output is buffered so a failing
// template never leaves a half-written page behind.
func (p *Pages) Render(w io.Writer, name string, data any) error {
	t, ok := p.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("failed to render %s page: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// Static returns the static assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Funcs returns the template helpers for a blog mounted at baseURL.
func Funcs(baseURL string) template.FuncMap {
	base := NormalizeBaseURL(baseURL)

	return template.FuncMap{
		"url": func(p string) string {
			return base + strings.TrimPrefix(p, "/")
		},
		"postURL": func(id int) string {
			return fmt.Sprintf("%sblog/%d", base, id)
		},
		"image": func(src string) string {
			return ImageURL(base, src)
		},
		"date": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"iso": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
	}
}

// NormalizeBaseURL makes sure the base ends with exactly one slash.
func NormalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		return "/"
	}
	return strings.TrimRight(baseURL, "/") + "/"
}

// ImageURL resolves a front matter image reference. Absolute URLs and rooted
// paths are kept, bare file names are served from the bundled images.
func ImageURL(base, src string) string {
	if src == "" || strings.HasPrefix(src, "/") || strings.Contains(src, "://") || strings.HasPrefix(src, "data:") {
		return src
	}
	return base + "images/" + path.Base(src)
}
