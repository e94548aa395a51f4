package presentation

import (
	"context"
	"errors"
	"time"

	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/dfryer1193/peakblog/blog/visibility"
	"github.com/dfryer1193/peakblog/internal/clock"
)

var testNow = time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

// memStore is a map-backed post store for tests.
type memStore struct {
	posts     map[int]*domain.Post
	err       error
	beforeGet func(id int)
}

func newMemStore(posts ...*domain.Post) *memStore {
	s := &memStore{posts: make(map[int]*domain.Post)}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s
}

func (s *memStore) ListAllPosts(ctx context.Context) ([]domain.PostSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.PostSummary, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p.Summary())
	}
	return out, nil
}

func (s *memStore) GetPostByID(ctx context.Context, id int) (*domain.Post, error) {
	if s.beforeGet != nil {
		s.beforeGet(id)
	}
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.posts[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	c := *p
	return &c, nil
}

func post(id int, published string, mods ...func(*domain.Post)) *domain.Post {
	p := &domain.Post{
		PostSummary: domain.PostSummary{
			ID:            id,
			Title:         "Post",
			PublishedDate: date(published),
		},
		Content: "Body text.",
	}
	for _, m := range mods {
		m(p)
	}
	return p
}

func withToken(token string) func(*domain.Post) {
	return func(p *domain.Post) { p.PreviewToken = token }
}

func withLinks(previous, next int) func(*domain.Post) {
	return func(p *domain.Post) {
		p.Previous = previous
		p.Next = next
	}
}

func withKeywords(keywords ...string) func(*domain.Post) {
	return func(p *domain.Post) { p.Keywords = keywords }
}

func newResolver(mode visibility.Mode) *visibility.Resolver {
	return visibility.NewResolver(visibility.NewSession(), clock.NewFake(testNow), mode)
}

var errBackend = errors.New("backend unavailable")
