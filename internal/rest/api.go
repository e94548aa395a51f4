package rest

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/dfryer1193/peakblog/blog/application"
	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/dfryer1193/peakblog/blog/presentation"
	"github.com/dfryer1193/peakblog/internal/middleware"
	"github.com/dfryer1193/peakblog/internal/session"
	"github.com/dfryer1193/peakblog/web"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the HTTP layer serves from.
type Deps struct {
	Store    domain.PostStore
	Markdown application.MarkdownRenderer
	Sessions *session.Manager

	// Limiter throttles unlock attempts per IP. Nil disables throttling.
	Limiter *middleware.IPRateLimiter
	// Images backs /images/. Nil serves nothing.
	Images fs.FS
	// LastSynced reports when the post index was last rebuilt. Optional.
	LastSynced func(ctx context.Context) (time.Time, error)
	// Webhook mounts its own routes. Nil leaves them unregistered.
	Webhook RouteRegistrar
}

// RouteRegistrar adds routes to the engine.
type RouteRegistrar interface {
	RegisterRoutes(r gin.IRoutes)
}

// Options tune how pages and the JSON API are served.
type Options struct {
	BaseURL    string
	CorsOrigin string
	CodeStyle  string
}

// Server holds the handlers of the blog.
type Server struct {
	store      domain.PostStore
	listing    *presentation.ListingView
	detail     *presentation.DetailView
	pages      *web.Pages
	static     *assetHandler
	images     *assetHandler
	lastSynced func(ctx context.Context) (time.Time, error)
	baseURL    string
}

// NewRouter builds the gin engine serving pages, assets and the posts/v1 API.
func NewRouter(deps Deps, opts Options) (*gin.Engine, error) {
	pages, err := web.LoadPages(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	var chroma bytes.Buffer
	if err := application.WriteCodeStyleCSS(&chroma, opts.CodeStyle); err != nil {
		return nil, fmt.Errorf("failed to generate code style %q: %w", opts.CodeStyle, err)
	}

	s := &Server{
		store:      deps.Store,
		listing:    presentation.NewListingView(deps.Store),
		detail:     presentation.NewDetailView(deps.Store, deps.Markdown),
		pages:      pages,
		static:     newAssetHandler(web.Static()).withGenerated("chroma.css", chroma.Bytes()),
		images:     newAssetHandler(deps.Images),
		lastSynced: deps.LastSynced,
		baseURL:    web.NormalizeBaseURL(opts.BaseURL),
	}

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))
	router.Use(middleware.SecurityHeadersMiddleware())

	router.GET("/healthz", s.Health)
	router.GET("/static/*filepath", s.static.serve)
	router.GET("/images/*filepath", s.images.serve)

	if deps.Webhook != nil {
		deps.Webhook.RegisterRoutes(router)
	}

	unlockChain := []gin.HandlerFunc{}
	if deps.Limiter != nil {
		unlockChain = append(unlockChain, middleware.RateLimitMiddleware(deps.Limiter))
	}

	site := router.Group("/", middleware.SessionMiddleware(deps.Sessions), noStore)
	{
		site.GET("/", s.HomePage)
		site.POST("/unlock", append(unlockChain, s.Unlock)...)
		site.GET("/blog/:id", s.PostPage)
	}

	if err := NewApi(router, s, deps, opts, unlockChain); err != nil {
		return nil, err
	}

	return router, nil
}

// NewApi registers the posts/v1 JSON API.
func NewApi(router *gin.Engine, s *Server, deps Deps, opts Options, unlockChain []gin.HandlerFunc) error {
	origin := opts.CorsOrigin
	if origin == "" {
		origin = "*"
	}
	// A wildcard origin cannot carry credentials, so cross-origin callers get a
	// fresh session per call. Same-origin callers and an explicit origin keep theirs.
	corsConfig := cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: origin != "*",
		MaxAge:           12 * time.Hour,
	}
	if err := corsConfig.Validate(); err != nil {
		return fmt.Errorf("invalid CORS origin %q: %w", origin, err)
	}

	postsV1 := router.Group("posts/v1", cors.New(corsConfig), middleware.SessionMiddleware(deps.Sessions), noStore)
	{
		postsV1.GET("/", s.GetPosts)
		postsV1.GET("/:postId", s.GetPost)
		postsV1.POST("/unlock", append(unlockChain, s.PostUnlock)...)

		// preflight requests are answered by the CORS middleware
		postsV1.OPTIONS("/", noContent)
		postsV1.OPTIONS("/:postId", noContent)
	}
	return nil
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// noStore keeps session dependent responses out of shared caches.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "private, no-store")
	c.Next()
}
