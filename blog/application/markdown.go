package application

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	maxLength = 200

	// baseURLPlaceholder lets authors reference bundled assets independently of where the blog is mounted.
	baseURLPlaceholder = "${baseUrl}"

	// DefaultCodeStyle is the chroma style used for code blocks.
	DefaultCodeStyle = "github"
)

var postLinkRegex = regexp.MustCompile(`^(\d+)-[^/]*\.(md|html)$`)

// MarkdownProcessingResult contains the results of processing a markdown file
type MarkdownProcessingResult struct {
	Title       string
	Snippet     string
	HTMLContent []byte
}

type relativeLinkTransformer struct {
	baseURL string
}

// Transform rewrites relative references in post bodies. Images are served from
// {base}images/, links to sibling post files (017-my-post.md) point at /blog/17.
func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Image:
			dest := string(v.Destination)
			if isRelativeLink(dest) && !strings.HasPrefix(dest, "/") {
				v.Destination = []byte(t.baseURL + "images/" + path.Base(dest))
			}
		case *ast.Link:
			dest := string(v.Destination)
			if !isRelativeLink(dest) || strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "#") {
				return ast.WalkContinue, nil
			}
			if m := postLinkRegex.FindStringSubmatch(path.Base(dest)); m != nil {
				v.Destination = []byte(t.baseURL + "blog/" + strings.TrimLeft(m[1], "0"))
			}
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	// Absolute path check
	if strings.HasPrefix(dest, "/") {
		if strings.HasPrefix(dest, "//") {
			return false
		}
		return true
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	if strings.Contains(dest, ":") {
		return false
	}

	return true
}

// MarkdownRenderer defines the interface for converting markdown to HTML.
type MarkdownRenderer interface {
	Render(markdown []byte) (*MarkdownProcessingResult, error)
}

type MarkdownRendererImpl struct {
	renderer goldmark.Markdown
	baseURL  string
}

// NewMarkdownRenderer builds the post renderer. baseURL is the path the blog is
// served under and always ends in a slash; codeStyle names a chroma style.
func NewMarkdownRenderer(baseURL string, codeStyle string) MarkdownRenderer {
	baseURL = normalizeBaseURL(baseURL)
	if codeStyle == "" {
		codeStyle = DefaultCodeStyle
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeLinkTransformer{baseURL: baseURL}, 100),
				util.Prioritized(&calloutTransformer{}, 200),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&calloutRenderer{}, 100),
				util.Prioritized(newCodeBlockRenderer(codeStyle), 100),
				util.Prioritized(&clickableImageRenderer{}, 100),
			),
		),
	)

	return &MarkdownRendererImpl{
		renderer: md,
		baseURL:  baseURL,
	}
}

func normalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		return "/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL
}

func (r *MarkdownRendererImpl) Render(markdown []byte) (*MarkdownProcessingResult, error) {
	markdown = bytes.ReplaceAll(markdown, []byte(baseURLPlaceholder), []byte(r.baseURL))

	title := extractPostTitle(markdown)
	snippet := extractSnippet(markdown)

	var buf bytes.Buffer
	err := r.renderer.Convert(markdown, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return &MarkdownProcessingResult{
		Title:       title,
		Snippet:     snippet,
		HTMLContent: buf.Bytes(),
	}, nil
}

func extractPostTitle(markdown []byte) string {
	lines := strings.SplitN(string(markdown), "\n", 2)
	if len(lines) == 0 {
		return "Untitled Post"
	}

	firstLine := strings.TrimSpace(lines[0])
	title, found := strings.CutPrefix(firstLine, "# ")
	if !found {
		return "Untitled Post"
	}

	return strings.TrimSpace(title)
}

func extractSnippet(markdown []byte) string {
	lines := strings.Split(string(markdown), "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Skip headings before we find content
		if strings.HasPrefix(trimmed, "#") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Empty line handling
		if trimmed == "" {
			if len(paragraphLines) > 0 {
				break // End of first paragraph
			}
			continue
		}

		// Stop at code blocks, horizontal rules, lists, tables, quotes and images
		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") ||
			strings.HasPrefix(trimmed, ">") ||
			strings.HasPrefix(trimmed, "![") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Collect paragraph content
		paragraphLines = append(paragraphLines, trimmed)
	}

	if len(paragraphLines) == 0 {
		return ""
	}

	snippet := strings.Join(paragraphLines, " ")

	// Truncate if too long
	if len(snippet) > maxLength {
		snippet = snippet[:maxLength]
		if lastSpace := strings.LastIndexAny(snippet, " \t"); lastSpace > 0 {
			snippet = snippet[:lastSpace]
		}
		snippet += "..."
	}

	return snippet
}
