package web

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"
	"time"
)

func TestLoadPages_Render(t *testing.T) {
	pages, err := LoadPages("/peak")
	if err != nil {
		t.Fatalf("LoadPages() error = %v", err)
	}

	var buf bytes.Buffer
	err = pages.Render(&buf, PageError, map[string]string{
		"Heading": "Post not found",
		"Message": "Blog post not found",
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"<title>Post not found · Peak Blog</title>", "Blog post not found", `href="/peak/static/style.css"`, `href="/peak/"`} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page does not contain %q", want)
		}
	}
}

func TestPages_RenderUnknown(t *testing.T) {
	pages, err := LoadPages("/")
	if err != nil {
		t.Fatalf("LoadPages() error = %v", err)
	}
	if err := pages.Render(&bytes.Buffer{}, "missing", nil); err == nil {
		t.Errorf("Render(missing) error = nil, want error")
	}
}

func TestFuncs(t *testing.T) {
	funcs := Funcs("/blog-root/")
	day := time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "url", got: funcs["url"].(func(string) string)("/static/blog.js"), want: "/blog-root/static/blog.js"},
		{name: "postURL", got: funcs["postURL"].(func(int) string)(20), want: "/blog-root/blog/20"},
		{name: "image", got: funcs["image"].(func(string) string)("cover.png"), want: "/blog-root/images/cover.png"},
		{name: "date", got: funcs["date"].(func(time.Time) string)(day), want: "November 4, 2025"},
		{name: "iso", got: funcs["iso"].(func(time.Time) string)(day), want: "2025-11-04"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{src: "", want: ""},
		{src: "cover.png", want: "/images/cover.png"},
		{src: "../assets/cover.png", want: "/images/cover.png"},
		{src: "/elsewhere/cover.png", want: "/elsewhere/cover.png"},
		{src: "https://cdn.example.com/a.png", want: "https://cdn.example.com/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			if got := ImageURL("/", tt.src); got != tt.want {
				t.Errorf("ImageURL(%q) = %q, want %q", tt.src, got, tt.want)
			}
		})
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	for in, want := range map[string]string{"": "/", "/": "/", "/peak": "/peak/", "/peak//": "/peak/"} {
		if got := NormalizeBaseURL(in); got != want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStatic(t *testing.T) {
	for _, name := range []string{"style.css", "blog.js"} {
		if _, err := fs.Stat(Static(), name); err != nil {
			t.Errorf("Stat(%s) error = %v", name, err)
		}
	}
}
