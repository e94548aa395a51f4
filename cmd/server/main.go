package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/peakblog/blog/application"
	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/dfryer1193/peakblog/blog/persistence"
	"github.com/dfryer1193/peakblog/blog/visibility"
	"github.com/dfryer1193/peakblog/content"
	"github.com/dfryer1193/peakblog/internal/clock"
	"github.com/dfryer1193/peakblog/internal/config"
	"github.com/dfryer1193/peakblog/internal/jobs"
	"github.com/dfryer1193/peakblog/internal/middleware"
	"github.com/dfryer1193/peakblog/internal/rest"
	"github.com/dfryer1193/peakblog/internal/session"
	"github.com/dfryer1193/peakblog/shared/db/sqlite"
	gh "github.com/dfryer1193/peakblog/shared/github"
	webhook "github.com/dfryer1193/peakblog/webhook/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"golang.org/x/time/rate"
)

const (
	defaultMainBranch = "main"

	unlockRate      = time.Second
	unlockBurst     = 10
	limiterIdleTime = time.Hour
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}

	cfg := &config.ServerConfig{}
	flag.Usage = func() {
		cfg.OutputUsage()
	}
	flag.Parse()

	if err := cfg.PopulateFromEnv(); err != nil {
		cfg.OutputUsage()
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	setupLogging(cfg)

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func setupLogging(cfg *config.ServerConfig) {
	zerolog.SetGlobalLevel(cfg.Level)
	if cfg.Visibility == visibility.Development {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}

func run(cfg *config.ServerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.Real()

	source, images, mainBranch, err := contentSource(ctx, cfg)
	if err != nil {
		return err
	}
	contentStore := application.NewContentStore(source)

	var store domain.PostStore = contentStore
	var repo domain.PostRepository
	if cfg.StoreType == config.StoreSQLite {
		database := sqlite.NewSQLiteDB(sqlite.NewSQLiteConfig(cfg.SqliteDBPath))
		if err := database.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close database")
			}
		}()

		postRepo := persistence.NewPostRepository(database.DB(), clk)
		repo, store = postRepo, postRepo
	}

	postService := application.NewPostService(contentStore, repo, mainBranch)
	defer func() {
		if err := postService.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close post service")
		}
	}()

	if err := postService.SyncContent(); err != nil {
		log.Error().Err(err).Msg("Initial content sync failed, serving the previous index")
	}

	sessions := session.NewManager(clk, cfg.Visibility, cfg.UnlockClicks)
	limiter := middleware.NewIPRateLimiter(rate.Every(unlockRate), unlockBurst, clk)

	deps := rest.Deps{
		Store:      store,
		Markdown:   application.NewMarkdownRenderer(cfg.BaseURL, cfg.CodeStyle),
		Sessions:   sessions,
		Limiter:    limiter,
		Images:     images,
		LastSynced: postService.LastSynced,
	}
	if cfg.WebhookSecret != "" {
		handler, err := webhook.NewWebhookHandler(cfg.WebhookSecret, postService)
		if err != nil {
			return err
		}
		deps.Webhook = handler
	}

	router, err := rest.NewRouter(deps, rest.Options{
		BaseURL:    cfg.BaseURL,
		CorsOrigin: cfg.CorsOrigin,
		CodeStyle:  cfg.CodeStyle,
	})
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	scheduler := jobs.NewScheduler()
	err = scheduler.Add("session-sweep", cfg.SweepSchedule, func() error {
		sessions.Sweep(cfg.SessionTTL)
		limiter.Prune(limiterIdleTime)
		return nil
	})
	if err != nil {
		return err
	}
	if cfg.ResyncSchedule != "" {
		if err := scheduler.Add("content-resync", cfg.ResyncSchedule, postService.SyncContent); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           gzhttp.GzipHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.Port).
			Str("mode", string(cfg.Visibility)).
			Str("source", source.Name()).
			Str("store", string(cfg.StoreType)).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

// contentSource picks where posts are read from. It also returns the images to
// serve and the branch whose pushes trigger a resync.
func contentSource(ctx context.Context, cfg *config.ServerConfig) (domain.ContentSource, fs.FS, string, error) {
	switch cfg.SourceType {
	case config.SourceDir:
		fsys := os.DirFS(cfg.ContentDir)
		images, err := fs.Sub(fsys, "images")
		if err != nil {
			return nil, nil, "", fmt.Errorf("failed to open images in %s: %w", cfg.ContentDir, err)
		}
		return persistence.NewFSSource(fsys, "dir:"+cfg.ContentDir), images, defaultMainBranch, nil

	case config.SourceGithub:
		client := gh.NewClient(cfg.GithubToken)
		ref := cfg.GithubRef
		if ref == "" {
			var err error
			ref, err = gh.NewGithubContentSource(client, cfg.GithubOwner, cfg.GithubRepo, "").GetDefaultBranchName(ctx)
			if err != nil {
				return nil, nil, "", fmt.Errorf("failed to get default branch name: %w", err)
			}
		}
		return gh.NewGithubContentSource(client, cfg.GithubOwner, cfg.GithubRepo, ref), content.Images(), ref, nil

	default:
		return persistence.NewFSSource(content.FS(), "embedded"), content.Images(), defaultMainBranch, nil
	}
}
