package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/rs/zerolog/log"
)

// ContentStore serves posts straight from a content source. The whole catalog is parsed on first
// use and kept in memory until Refresh is called. Units that cannot be read or parsed are logged
// and left out, so one bad file never hides the rest.
type ContentStore struct {
	source domain.ContentSource

	mu     sync.RWMutex
	loaded bool
	posts  map[int]*domain.Post
}

var _ domain.PostStore = (*ContentStore)(nil)

func NewContentStore(source domain.ContentSource) *ContentStore {
	return &ContentStore{
		source: source,
		posts:  make(map[int]*domain.Post),
	}
}

// ListAllPosts returns a summary of every well-formed post, in unspecified order.
func (s *ContentStore) ListAllPosts(ctx context.Context) ([]domain.PostSummary, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	summaries := make([]domain.PostSummary, 0, len(s.posts))
	for _, p := range s.posts {
		summaries = append(summaries, p.Summary())
	}
	return summaries, nil
}

// GetPostByID returns the full post regardless of its publish date.
func (s *ContentStore) GetPostByID(ctx context.Context, id int) (*domain.Post, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return clonePost(p), nil
}

// Posts returns every loaded post ordered by id.
func (s *ContentStore) Posts(ctx context.Context) ([]*domain.Post, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]*domain.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, clonePost(p))
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

// Refresh re-reads the content source. On failure the previous catalog stays in place.
func (s *ContentStore) Refresh(ctx context.Context) error {
	posts, err := s.load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.posts = posts
	s.loaded = true
	s.mu.Unlock()

	log.Info().Str("source", s.source.Name()).Int("posts", len(posts)).Msg("Loaded content catalog")
	return nil
}

func (s *ContentStore) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}
	return s.Refresh(ctx)
}

func (s *ContentStore) load(ctx context.Context) (map[int]*domain.Post, error) {
	names, err := s.source.ListUnits(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list content units from %s: %w", s.source.Name(), err)
	}
	sort.Strings(names)

	posts := make(map[int]*domain.Post, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := s.source.ReadUnit(ctx, name)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Error().Err(err).Str("unit", name).Msg("Failed to read content unit, skipping")
			continue
		}

		post, err := ParseUnit(name, raw)
		if err != nil {
			log.Error().Err(err).Str("unit", name).Msg("Malformed content unit, skipping")
			continue
		}

		if existing, ok := posts[post.ID]; ok {
			log.Warn().
				Int("postID", post.ID).
				Str("unit", name).
				Str("kept", existing.Source).
				Msg("Duplicate post id, skipping unit")
			continue
		}
		posts[post.ID] = post
	}

	return posts, nil
}

func clonePost(p *domain.Post) *domain.Post {
	c := *p
	c.PostSummary = p.Summary()
	return &c
}
