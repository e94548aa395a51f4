package application

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// codeBlockRenderer highlights fenced code with chroma and wraps it with a copy button.
// Highlighting emits CSS classes; the matching stylesheet comes from WriteCodeStyleCSS.
type codeBlockRenderer struct {
	formatter *chromahtml.Formatter
	style     *chroma.Style
}

func newCodeBlockRenderer(styleName string) *codeBlockRenderer {
	return &codeBlockRenderer{
		formatter: chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true)),
		style:     styles.Get(styleName),
	}
}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *codeBlockRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkSkipChildren, nil
	}

	var code bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		segment := lines.At(i)
		code.Write(segment.Value(source))
	}

	language := ""
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		language = string(fenced.Language(source))
	}

	_, _ = w.WriteString(`<div class="code-block-wrapper"><button class="copy-button" type="button" aria-label="Copy code">Copy</button>`)
	if language != "" {
		_, _ = fmt.Fprintf(w, `<pre class="chroma language-%s"><code>`, html.EscapeString(language))
	} else {
		_, _ = w.WriteString(`<pre class="chroma"><code>`)
	}

	if err := r.highlight(w, code.String(), language); err != nil {
		log.Warn().Err(err).Str("language", language).Msg("Failed to highlight code block")
		_, _ = w.WriteString(html.EscapeString(code.String()))
	}

	_, _ = w.WriteString("</code></pre></div>\n")
	return ast.WalkSkipChildren, nil
}

func (r *codeBlockRenderer) highlight(w io.Writer, code string, language string) error {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fmt.Errorf("failed to tokenise code: %w", err)
	}

	var buf bytes.Buffer
	if err := r.formatter.Format(&buf, r.style, iterator); err != nil {
		return fmt.Errorf("failed to format code: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// WriteCodeStyleCSS writes the stylesheet for the named chroma style.
func WriteCodeStyleCSS(w io.Writer, styleName string) error {
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	return formatter.WriteCSS(w, styles.Get(styleName))
}

// clickableImageRenderer marks post images so the page script can open them in a modal.
type clickableImageRenderer struct{}

func (r *clickableImageRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindImage, r.renderImage)
}

func (r *clickableImageRenderer) renderImage(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.Image)

	var alt bytes.Buffer
	collectText(&alt, source, n)

	_, _ = fmt.Fprintf(w, `<img class="clickable" src="%s" alt="%s" loading="lazy"`,
		html.EscapeString(string(util.URLEscape(n.Destination, true))),
		html.EscapeString(alt.String()))
	if n.Title != nil {
		_, _ = fmt.Fprintf(w, ` title="%s"`, html.EscapeString(string(n.Title)))
	}
	_, _ = w.WriteString(" />")
	return ast.WalkSkipChildren, nil
}

func collectText(buf *bytes.Buffer, source []byte, n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(source))
			continue
		}
		collectText(buf, source, c)
	}
}
