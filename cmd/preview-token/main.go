package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dfryer1193/peakblog/internal/previewtoken"
)

func main() {
	run(os.Stdout, os.Stderr, previewtoken.New(nil))
}

// run never fails the process: a token problem is reported on stderr and the exit code stays 0.
func run(stdout, stderr io.Writer, gen *previewtoken.Generator) {
	token, err := gen.Generate()
	if err != nil {
		fmt.Fprintf(stderr, "failed to generate preview token: %v\n", err)
		return
	}
	printToken(stdout, token)
}

// printToken writes the token and how to use it. Styling is dropped when w is not a terminal.
func printToken(w io.Writer, token string) {
	r := lipgloss.NewRenderer(w)
	heading := r.NewStyle().Bold(true)
	tokenStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dim := r.NewStyle().Faint(true)

	rule := dim.Render(strings.Repeat("─", 40))

	fmt.Fprintln(w)
	fmt.Fprintln(w, heading.Render("🔑 Generated Preview Token:"))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "   %s\n", tokenStyle.Render(token))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading.Render("Add to your article frontmatter:"))
	fmt.Fprintf(w, "previewToken: %q\n", token)
	fmt.Fprintln(w)
	fmt.Fprintln(w, heading.Render("Example preview URL:"))
	fmt.Fprintf(w, "/blog/YOUR_POST_ID?preview=%s\n", token)
	fmt.Fprintln(w)
}
