package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"
)

var (
	postPathRegex = regexp.MustCompile(`^posts/(\d+)-.*\.md$`)

	errServiceClosed = errors.New("post service is closed")
)

// PostService keeps the post index in step with the content source.
type PostService struct {
	store          *ContentStore
	mainBranchName string

	// Service lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup

	// lifecycleMu orders spawning background work against Close
	lifecycleMu sync.Mutex
	closed      bool

	// syncMu serialises resyncs triggered by the scheduler and by webhooks
	syncMu sync.Mutex

	// repo is nil when posts are served straight from the content store
	repo domain.PostRepository
}

func NewPostService(store *ContentStore, repo domain.PostRepository, mainBranchName string) *PostService {
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	return &PostService{
		store:          store,
		mainBranchName: mainBranchName,
		ctx:            ctx,
		cancel:         cancel,
		wg:             &wg,
		repo:           repo,
	}
}

// Close gracefully shuts down the PostService by cancelling all background workers
func (s *PostService) Close() error {
	s.lifecycleMu.Lock()
	s.closed = true
	s.cancel()
	s.lifecycleMu.Unlock()

	s.wg.Wait()

	return nil
}

// SyncContent re-reads the content source, reports problems in the series links
// and rebuilds the index from the posts that parsed.
func (s *PostService) SyncContent() error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	if err := s.store.Refresh(s.ctx); err != nil {
		return fmt.Errorf("failed to refresh content: %w", err)
	}

	posts, err := s.store.Posts(s.ctx)
	if err != nil {
		return fmt.Errorf("failed to read refreshed content: %w", err)
	}

	LogChainIssues(ValidateChain(posts))

	if s.repo == nil {
		return nil
	}

	if err := s.repo.ReplaceAll(s.ctx, posts); err != nil {
		return fmt.Errorf("failed to update post index: %w", err)
	}

	log.Info().Int("posts", len(posts)).Msg("Post index updated")
	return nil
}

// LastSynced returns when the index was last rebuilt, or the zero time when there is no index.
func (s *PostService) LastSynced(ctx context.Context) (time.Time, error) {
	if s.repo == nil {
		return time.Time{}, nil
	}
	return s.repo.GetLatestUpdatedTime(ctx)
}

// HandlePushEvent schedules a resync when a push to the main branch touched a post.
// This method returns immediately; the resync runs on the service's lifecycle context,
// not the request context.
func (s *PostService) HandlePushEvent(evt *github.PushEvent) error {
	if evt == nil {
		return fmt.Errorf("push event is nil")
	}

	ref := evt.GetRef()
	if ref != "refs/heads/"+s.mainBranchName {
		log.Debug().Str("ref", ref).Msg("Ignoring push to non-main branch")
		return nil
	}

	changed := changedPostFiles(evt)
	if len(changed) == 0 {
		log.Debug().Str("after", evt.GetAfter()).Msg("Push did not touch any posts")
		return nil
	}

	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.closed {
		return errServiceClosed
	}

	ids := make([]string, 0, len(changed))
	for _, f := range changed {
		ids = append(ids, extractPostID(f))
	}

	log.Info().Strs("files", changed).Strs("postIDs", ids).Str("after", evt.GetAfter()).Msg("Posts changed, scheduling resync")
	s.wg.Go(func() {
		if err := s.SyncContent(); err != nil {
			log.Error().Err(err).Str("after", evt.GetAfter()).Msg("Failed to resync content after push")
		}
	})

	return nil
}

// changedPostFiles lists the post files added, modified or removed anywhere in the push.
func changedPostFiles(evt *github.PushEvent) []string {
	seen := make(map[string]bool)
	var files []string

	collect := func(paths []string) {
		for _, p := range paths {
			if isPostFile(p) && !seen[p] {
				seen[p] = true
				files = append(files, p)
			}
		}
	}

	commits := append([]*github.HeadCommit(nil), evt.Commits...)
	if head := evt.GetHeadCommit(); head != nil {
		commits = append(commits, head)
	}
	for _, c := range commits {
		collect(c.Added)
		collect(c.Modified)
		collect(c.Removed)
	}

	return files
}

// isPostFile checks if a file path is a valid post file in the posts/ directory
// Valid format: posts/NNN-title-of-post.md where NNN is one or more digits
func isPostFile(path string) bool {
	return postPathRegex.MatchString(path)
}

// extractPostID extracts the numeric ID from a post filename
// Example: "posts/001-my-post.md" -> "001"
func extractPostID(path string) string {
	matches := postPathRegex.FindStringSubmatch(path)
	if len(matches) < 2 {
		return ""
	}
	return matches[1]
}
