package application

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var calloutHeaderRegex = regexp.MustCompile(`^\[!(\w+)\]([+-]?)\s*(.*)$`)

const defaultCalloutIcon = `<i class="fa-solid fa-message"></i>`

// calloutStyles maps every recognised callout type, aliases included, to the type whose styling it shares.
var calloutStyles = map[string]string{
	"note":     "note",
	"warning":  "warning",
	"tip":      "tip",
	"info":     "info",
	"danger":   "danger",
	"question": "question",
	"abstract": "abstract",
	"todo":     "todo",
	"success":  "success",
	"failure":  "failure",
	"bug":      "bug",
	"example":  "example",
	"quote":    "quote",

	"summary":   "abstract",
	"tldr":      "abstract",
	"hint":      "tip",
	"important": "tip",
	"check":     "success",
	"done":      "success",
	"help":      "question",
	"faq":       "question",
	"caution":   "warning",
	"attention": "warning",
	"fail":      "failure",
	"missing":   "failure",
	"error":     "danger",
	"cite":      "quote",
}

var calloutIcons = map[string]string{
	"note":     `<i class="fa-solid fa-pencil"></i>`,
	"warning":  `<i class="fa-solid fa-triangle-exclamation"></i>`,
	"tip":      `<i class="fa-solid fa-fire"></i>`,
	"info":     `<i class="fa-solid fa-info"></i>`,
	"danger":   `<i class="fa-solid fa-zap"></i>`,
	"question": `<i class="fa-solid fa-circle-question"></i>`,
	"abstract": `<i class="fa-solid fa-clipboard-list"></i>`,
	"todo":     `<i class="fa-solid fa-circle-check"></i>`,
	"success":  `<i class="fa-solid fa-check"></i>`,
	"failure":  `<i class="fa-solid fa-x"></i>`,
	"bug":      `<i class="fa-solid fa-bug"></i>`,
	"example":  `<i class="fa-solid fa-list-ol"></i>`,
	"quote":    `<i class="fa-solid fa-quote-left"></i>`,
}

// KindCallout is the node kind of a callout block.
var KindCallout = ast.NewNodeKind("Callout")

// Callout is an admonition written as `> [!type]` at the top of a blockquote.
// A `+` or `-` after the type makes it collapsible, `-` starts it collapsed.
type Callout struct {
	ast.BaseBlock
	CalloutType string
	Title       string
	Collapsible bool
	Collapsed   bool
}

func (n *Callout) Kind() ast.NodeKind {
	return KindCallout
}

func (n *Callout) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Type":  n.CalloutType,
		"Title": n.Title,
	}, nil)
}

// Style returns the CSS type of the callout after alias resolution.
func (n *Callout) Style() string {
	if style, ok := calloutStyles[n.CalloutType]; ok {
		return style
	}
	return n.CalloutType
}

type calloutTransformer struct{}

func (t *calloutTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var quotes []*ast.Blockquote
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if bq, ok := n.(*ast.Blockquote); ok && entering {
			quotes = append(quotes, bq)
		}
		return ast.WalkContinue, nil
	})

	for _, bq := range quotes {
		para, ok := bq.FirstChild().(*ast.Paragraph)
		if !ok || para.Lines().Len() == 0 {
			continue
		}

		header := para.Lines().At(0)
		m := calloutHeaderRegex.FindStringSubmatch(strings.TrimSpace(string(header.Value(source))))
		if m == nil {
			continue
		}

		calloutType := strings.ToLower(m[1])
		title := strings.TrimSpace(m[3])
		if title == "" {
			title = strings.ToUpper(calloutType[:1]) + calloutType[1:]
		}
		callout := &Callout{
			CalloutType: calloutType,
			Title:       title,
			Collapsible: m[2] != "",
			Collapsed:   m[2] == "-",
		}

		dropHeaderLine(para, header.Stop)
		if para.ChildCount() == 0 {
			bq.RemoveChild(bq, para)
		}

		for child := bq.FirstChild(); child != nil; {
			next := child.NextSibling()
			bq.RemoveChild(bq, child)
			callout.AppendChild(callout, child)
			child = next
		}

		if parent := bq.Parent(); parent != nil {
			parent.ReplaceChild(parent, bq, callout)
		}
	}
}

// dropHeaderLine removes the inline nodes that belong to the first line of the paragraph.
func dropHeaderLine(para *ast.Paragraph, stop int) {
	for child := para.FirstChild(); child != nil; {
		next := child.NextSibling()
		if start, ok := firstSegmentStart(child); ok && start >= stop {
			return
		}
		para.RemoveChild(para, child)
		child = next
	}
}

func firstSegmentStart(n ast.Node) (int, bool) {
	if t, ok := n.(*ast.Text); ok {
		return t.Segment.Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if start, ok := firstSegmentStart(c); ok {
			return start, true
		}
	}
	return 0, false
}

type calloutRenderer struct{}

func (r *calloutRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindCallout, r.renderCallout)
}

func (r *calloutRenderer) renderCallout(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Callout)
	if !entering {
		_, _ = w.WriteString("</div></div>\n")
		return ast.WalkContinue, nil
	}

	classes := "callout callout-" + html.EscapeString(n.Style())
	if n.Collapsible {
		classes += " collapsible"
	}
	if n.Collapsed {
		classes += " collapsed"
	}

	icon, ok := calloutIcons[n.Style()]
	if !ok {
		icon = defaultCalloutIcon
	}

	toggle := ""
	if n.Collapsible {
		toggle = `<span class="callout-toggle">▼</span>`
	}

	_, _ = fmt.Fprintf(w,
		`<div class="%s"><span class="callout-title">%s<span class="callout-icon">%s</span><p>%s</p></span><div class="callout-body">`+"\n",
		classes, toggle, icon, html.EscapeString(n.Title))
	return ast.WalkContinue, nil
}
