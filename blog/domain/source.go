package domain

import (
	"context"
)

// ContentSource defines the interface for enumerating and reading raw content units
// (markdown files with front matter). This allows the application to be decoupled
// from where the posts live: the embedded bundle, a directory or a GitHub repository.
type ContentSource interface {
	// ListUnits returns the names of all content units in a stable order.
	ListUnits(ctx context.Context) ([]string, error)

	// ReadUnit returns the raw bytes of a single unit.
	ReadUnit(ctx context.Context, name string) ([]byte, error)

	// Name describes the source for logs.
	Name() string
}
