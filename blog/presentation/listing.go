package presentation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/dfryer1193/peakblog/blog/visibility"
)

// ListingOptions controls which posts the home page shows.
type ListingOptions struct {
	// IncludeAll skips the access check and lists every post.
	IncludeAll bool
	// Keyword keeps posts with a keyword containing it, case-insensitively.
	Keyword string
}

// Card is one entry of the listing. Future marks posts dated after now so they
// can be badged even when the viewer is allowed to see them.
type Card struct {
	domain.PostSummary
	Future bool
}

// ListingView builds the home page listing.
type ListingView struct {
	store domain.PostStore
}

func NewListingView(store domain.PostStore) *ListingView {
	return &ListingView{store: store}
}

// Load returns the visible posts, newest first.
func (v *ListingView) Load(ctx context.Context, resolver *visibility.Resolver, opts ListingOptions) ([]Card, error) {
	summaries, err := v.store.ListAllPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	keyword := strings.ToLower(strings.TrimSpace(opts.Keyword))

	cards := make([]Card, 0, len(summaries))
	for _, s := range summaries {
		if !opts.IncludeAll && !resolver.CanAccessPost(s.ID, s.PublishedDate) {
			continue
		}
		if keyword != "" && !hasKeyword(s.Keywords, keyword) {
			continue
		}
		cards = append(cards, Card{
			PostSummary: s,
			Future:      resolver.IsFuture(s.PublishedDate),
		})
	}

	sort.SliceStable(cards, func(i, j int) bool {
		if !cards[i].PublishedDate.Equal(cards[j].PublishedDate) {
			return cards[i].PublishedDate.After(cards[j].PublishedDate)
		}
		return cards[i].ID > cards[j].ID
	})

	return cards, nil
}

func hasKeyword(keywords []string, needle string) bool {
	for _, k := range keywords {
		if strings.Contains(strings.ToLower(k), needle) {
			return true
		}
	}
	return false
}
