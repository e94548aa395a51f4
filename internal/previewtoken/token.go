// Package previewtoken generates the per-post tokens authors paste into front matter.
package previewtoken

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// Length is the number of characters in a token.
	Length = 10

	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	// largest multiple of len(alphabet) that fits in a byte; bytes at or above it are redrawn
	rejectAbove = 256 - 256%len(alphabet)
)

// Generator draws tokens from a byte source.
type Generator struct {
	r io.Reader
}

// New returns a generator reading from r. A nil reader means crypto/rand.
func New(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{r: r}
}

// Generate returns a token of Length characters from [a-z0-9], uniformly distributed.
func (g *Generator) Generate() (string, error) {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length)

	for len(out) < Length {
		if _, err := io.ReadFull(g.r, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == Length {
				break
			}
		}
	}

	return string(out), nil
}

// Generate returns a token from crypto/rand.
func Generate() (string, error) {
	return New(nil).Generate()
}
