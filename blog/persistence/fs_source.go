package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"

	"github.com/dfryer1193/peakblog/blog/domain"
)

// PostsDir is the directory holding content units inside a content filesystem.
const PostsDir = "posts"

var unitNameRegex = regexp.MustCompile(`^\d+-[^/]*\.md$`)

// FSSource reads content units from posts/NNN-slug.md files in any fs.FS:
// the bundle embedded in the binary or a directory on disk.
type FSSource struct {
	fsys fs.FS
	name string
}

var _ domain.ContentSource = (*FSSource)(nil)

func NewFSSource(fsys fs.FS, name string) *FSSource {
	return &FSSource{
		fsys: fsys,
		name: name,
	}
}

// ListUnits returns the file names of all content units, sorted.
func (s *FSSource) ListUnits(ctx context.Context) ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, PostsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s directory: %w", PostsDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !unitNameRegex.MatchString(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadUnit returns the raw bytes of posts/name.
func (s *FSSource) ReadUnit(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !unitNameRegex.MatchString(name) {
		return nil, fmt.Errorf("invalid content unit name %q", name)
	}

	raw, err := fs.ReadFile(s.fsys, path.Join(PostsDir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read content unit %s: %w", name, err)
	}
	return raw, nil
}

func (s *FSSource) Name() string {
	return s.name
}
