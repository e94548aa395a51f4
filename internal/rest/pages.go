package rest

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/dfryer1193/peakblog/blog/presentation"
	"github.com/dfryer1193/peakblog/internal/middleware"
	"github.com/dfryer1193/peakblog/web"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	notFoundMessage     = "Blog post not found"
	futureLockedMessage = "This post is scheduled for future publication and is not yet available."
	staleMessage        = "The request was abandoned before the post loaded."
)

type homePage struct {
	Cards    []presentation.Card
	Query    string
	Armed    bool
	Unlocked bool
}

type errorPage struct {
	Heading string
	Message string
}

// HomePage lists the posts the viewer may see, optionally filtered by ?q=.
func (s *Server) HomePage(c *gin.Context) {
	viewer := middleware.CurrentViewer(c)
	unlocked := viewer.Resolver.Session().GloballyUnlocked()
	query := c.Query("q")

	cards, err := s.listing.Load(c.Request.Context(), viewer.Resolver, presentation.ListingOptions{
		IncludeAll: unlocked,
		Keyword:    query,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	s.render(c, http.StatusOK, web.PageHome, homePage{
		Cards:    cards,
		Query:    query,
		Armed:    viewer.Gesture.Armed(),
		Unlocked: unlocked && c.Query("unlocked") == "1",
	})
}

// Unlock records one activation of the hidden gesture and returns to the home page.
func (s *Server) Unlock(c *gin.Context) {
	viewer := middleware.CurrentViewer(c)

	target := s.baseURL
	if viewer.Gesture.Activate(viewer.Resolver) {
		log.Info().Str("session", viewer.ID).Msg("Session globally unlocked")
		target += "?unlocked=1"
	}
	c.Redirect(http.StatusSeeOther, target)
}

// PostPage renders one post, or a page saying why it cannot be shown.
func (s *Server) PostPage(c *gin.Context) {
	viewer := middleware.CurrentViewer(c)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		s.renderError(c, http.StatusNotFound, "Post not found", notFoundMessage)
		return
	}

	page, err := s.detail.Load(c.Request.Context(), presentation.NewNavigator(), viewer.Resolver, id, c.Query("preview"))
	if errors.Is(err, presentation.ErrStaleNavigation) {
		log.Debug().Int("postID", id).Str("session", viewer.ID).Msg("Discarded stale navigation")
		c.String(http.StatusConflict, staleMessage)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	switch page.State {
	case presentation.StateRendered:
		s.render(c, http.StatusOK, web.PagePost, page)
	case presentation.StateFutureLocked:
		s.renderError(c, http.StatusForbidden, "Not yet published", futureLockedMessage)
	default:
		s.renderError(c, http.StatusNotFound, "Post not found", notFoundMessage)
	}
}

func (s *Server) renderError(c *gin.Context, status int, heading, message string) {
	s.render(c, status, web.PageError, errorPage{Heading: heading, Message: message})
}

func (s *Server) render(c *gin.Context, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.pages.Render(&buf, name, data); err != nil {
		log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	s.renderError(c, http.StatusInternalServerError, "Something went wrong", "Please try again later.")
}
