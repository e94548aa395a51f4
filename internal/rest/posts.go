package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dfryer1193/peakblog/api"
	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/dfryer1193/peakblog/blog/presentation"
	"github.com/dfryer1193/peakblog/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// GetPosts lists the posts the caller's session may see.
func (s *Server) GetPosts(c *gin.Context) {
	viewer := middleware.CurrentViewer(c)
	unlocked := viewer.Resolver.Session().GloballyUnlocked()

	cards, err := s.listing.Load(c.Request.Context(), viewer.Resolver, presentation.ListingOptions{
		IncludeAll: unlocked,
		Keyword:    c.Query("q"),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
		return
	}

	resp := api.PostList{
		Posts:    make([]api.PostSummary, 0, len(cards)),
		Unlocked: unlocked,
	}
	for _, card := range cards {
		resp.Posts = append(resp.Posts, toAPISummary(card.PostSummary, card.Future))
	}
	c.JSON(http.StatusOK, resp)
}

// GetPost returns one post. Content is only included when the caller may see it.
func (s *Server) GetPost(c *gin.Context) {
	viewer := middleware.CurrentViewer(c)

	postID, err := strconv.Atoi(c.Param("postId"))
	if err != nil || postID <= 0 {
		c.JSON(http.StatusNotFound, api.Post{
			State:   presentation.StateNotFound.String(),
			Message: notFoundMessage,
		})
		return
	}

	page, err := s.detail.Load(c.Request.Context(), presentation.NewNavigator(), viewer.Resolver, postID, c.Query("preview"))
	if errors.Is(err, presentation.ErrStaleNavigation) {
		c.JSON(http.StatusConflict, gin.H{"error": staleMessage})
		return
	}
	if err != nil {
		log.Error().Err(err).Int("postID", postID).Msg("Failed to load post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load post"})
		return
	}

	resp := api.Post{
		State: page.State.String(),
		ID:    postID,
	}
	switch page.State {
	case presentation.StateRendered:
		summary := toAPISummary(page.Post.PostSummary, page.Future)
		resp.Summary = &summary
		resp.HTMLContent = string(page.HTML)
		resp.PreviousID = page.PreviousID
		resp.NextID = page.NextID
		c.JSON(http.StatusOK, resp)
	case presentation.StateFutureLocked:
		resp.Message = futureLockedMessage
		c.JSON(http.StatusForbidden, resp)
	default:
		resp.Message = notFoundMessage
		c.JSON(http.StatusNotFound, resp)
	}
}

// PostUnlock records one activation of the hidden gesture.
func (s *Server) PostUnlock(c *gin.Context) {
	viewer := middleware.CurrentViewer(c)

	unlocked := viewer.Gesture.Activate(viewer.Resolver)
	if unlocked {
		log.Info().Str("session", viewer.ID).Msg("Session globally unlocked")
	}

	c.JSON(http.StatusOK, api.UnlockResult{
		Unlocked:  unlocked,
		Armed:     viewer.Gesture.Armed(),
		Remaining: viewer.Gesture.Remaining(),
	})
}

func toAPISummary(p domain.PostSummary, future bool) api.PostSummary {
	return api.PostSummary{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		PublishedDate: p.PublishedDate.UTC().Format(time.RFC3339),
		Keywords:      nonNil(p.Keywords),
		Image:         p.Image,
		Audience:      nonNil(p.Audience),
		ReadingTime:   p.ReadingTime,
		Future:        future,
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
