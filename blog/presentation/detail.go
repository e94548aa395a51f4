package presentation

import (
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/dfryer1193/peakblog/blog/application"
	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/dfryer1193/peakblog/blog/visibility"
	"github.com/rs/zerolog/log"
)

// Page is the outcome of loading a detail page. Post and HTML are only set
// when State is StateRendered.
type Page struct {
	State State
	Post  *domain.Post
	HTML  template.HTML

	// PreviousID is shown whenever the post declares one.
	PreviousID int
	// NextID is zero unless the next post is accessible to the viewer.
	NextID int
	// Future marks a rendered post dated after now.
	Future bool
}

// DetailView loads a single post for a viewer.
type DetailView struct {
	store    domain.PostStore
	markdown application.MarkdownRenderer
}

func NewDetailView(store domain.PostStore, markdown application.MarkdownRenderer) *DetailView {
	return &DetailView{
		store:    store,
		markdown: markdown,
	}
}

// Load fetches post id regardless of its date, applies a matching preview token,
// then gates the page through the resolver. A result for a navigation that has
// been superseded on nav, or whose ctx is done, is discarded with ErrStaleNavigation.
// Tabs sharing a session each pass their own Navigator.
func (v *DetailView) Load(ctx context.Context, nav *Navigator, resolver *visibility.Resolver, id int, token string) (*Page, error) {
	ticket := nav.Begin(id)

	post, err := v.store.GetPostByID(ctx, id)
	if errors.Is(err, domain.ErrPostNotFound) {
		return v.finish(ctx, nav, ticket, &Page{State: StateNotFound})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load post %d: %w", id, err)
	}

	// the grant must land before the access check below
	if token != "" && visibility.TokenMatches(post.PreviewToken, token) {
		resolver.GrantPostUnlock(post.ID)
		log.Debug().Int("postID", post.ID).Msg("Preview token accepted")
	}

	if !resolver.CanAccessPost(post.ID, post.PublishedDate) {
		return v.finish(ctx, nav, ticket, &Page{State: StateFutureLocked})
	}

	rendered, err := v.markdown.Render([]byte(post.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to render post %d: %w", id, err)
	}

	page := &Page{
		State:      StateRendered,
		Post:       post,
		HTML:       template.HTML(rendered.HTMLContent),
		PreviousID: post.Previous,
		NextID:     v.accessibleNext(ctx, resolver, post),
		Future:     resolver.IsFuture(post.PublishedDate),
	}
	return v.finish(ctx, nav, ticket, page)
}

// accessibleNext returns post.Next only when the viewer may open it.
// The previous link has no such check: it is always shown.
func (v *DetailView) accessibleNext(ctx context.Context, resolver *visibility.Resolver, post *domain.Post) int {
	if post.Next == 0 {
		return 0
	}

	next, err := v.store.GetPostByID(ctx, post.Next)
	if err != nil {
		if !errors.Is(err, domain.ErrPostNotFound) {
			log.Error().Err(err).Int("postID", post.ID).Int("nextID", post.Next).Msg("Failed to load next post")
		}
		return 0
	}

	if !resolver.CanAccessPost(next.ID, next.PublishedDate) {
		return 0
	}
	return next.ID
}

func (v *DetailView) finish(ctx context.Context, nav *Navigator, ticket Ticket, page *Page) (*Page, error) {
	if ctx.Err() != nil {
		return nil, ErrStaleNavigation
	}
	if err := nav.Finish(ticket, page.State); err != nil {
		return nil, err
	}
	return page, nil
}
