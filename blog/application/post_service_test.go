package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/google/go-github/v75/github"
)

// mapSource is an in-memory content source keyed by unit name.
type mapSource struct {
	mu      sync.Mutex
	units   map[string]string
	failing map[string]bool
	listErr error
	reads   int
}

func (m *mapSource) ListUnits(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.units))
	for name := range m.units {
		names = append(names, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (m *mapSource) ReadUnit(ctx context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.failing[name] {
		return nil, errors.New("read failed")
	}
	raw, ok := m.units[name]
	if !ok {
		return nil, errors.New("no such unit")
	}
	return []byte(raw), nil
}

func (m *mapSource) Name() string {
	return "map"
}

func (m *mapSource) set(name, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[name] = raw
}

type recordingRepository struct {
	mu       sync.Mutex
	posts    []*domain.Post
	replaced int
	err      error
}

func (r *recordingRepository) ListAllPosts(ctx context.Context) ([]domain.PostSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PostSummary
	for _, p := range r.posts {
		out = append(out, p.Summary())
	}
	return out, nil
}

func (r *recordingRepository) GetPostByID(ctx context.Context, id int) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrPostNotFound
}

func (r *recordingRepository) ReplaceAll(ctx context.Context, posts []*domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.posts = posts
	r.replaced++
	return nil
}

func (r *recordingRepository) GetLatestUpdatedTime(ctx context.Context) (time.Time, error) {
	return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), nil
}

func unit(id, date string, extra string) string {
	return "---\nid: " + id + "\npublishedDate: " + date + "\ntitle: Post " + id + "\n" + extra + "---\nBody of post " + id + "\n"
}

func TestIsPostFile(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{
			name:     "Valid post file",
			path:     "posts/001-my-post.md",
			expected: true,
		},
		{
			name:     "Valid post with longer ID",
			path:     "posts/123-another-post.md",
			expected: true,
		},
		{
			name:     "Not a post - wrong directory",
			path:     "articles/001-post.md",
			expected: false,
		},
		{
			name:     "Not a post - no ID",
			path:     "posts/my-post.md",
			expected: false,
		},
		{
			name:     "Not a post - wrong extension",
			path:     "posts/001-my-post.txt",
			expected: false,
		},
		{
			name:     "Not a post - image file",
			path:     "images/photo.jpg",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isPostFile(tt.path)
			if result != tt.expected {
				t.Errorf("isPostFile(%q) = %v, want %v", tt.path, result, tt.expected)
			}
		})
	}
}

func TestExtractPostID(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "Single digit ID",
			path:     "posts/1-post.md",
			expected: "1",
		},
		{
			name:     "Three digit ID with leading zeros",
			path:     "posts/001-my-post.md",
			expected: "001",
		},
		{
			name:     "Invalid - no ID",
			path:     "posts/my-post.md",
			expected: "",
		},
		{
			name:     "Invalid - not a post file",
			path:     "images/001-image.jpg",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractPostID(tt.path)
			if result != tt.expected {
				t.Errorf("extractPostID(%q) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

func TestChangedPostFiles(t *testing.T) {
	evt := &github.PushEvent{
		Commits: []*github.HeadCommit{
			{Added: []string{"posts/001-first.md", "README.md"}},
			{Modified: []string{"images/cover.png"}, Removed: []string{"posts/002-second.md"}},
		},
		HeadCommit: &github.HeadCommit{Modified: []string{"posts/001-first.md"}},
	}

	got := changedPostFiles(evt)
	want := []string{"posts/001-first.md", "posts/002-second.md"}
	if len(got) != len(want) {
		t.Fatalf("changedPostFiles() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("changedPostFiles()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPostService_SyncContent(t *testing.T) {
	source := &mapSource{units: map[string]string{
		"001-first.md":  unit("1", "2024-01-01", "next: 2\n"),
		"002-second.md": unit("2", "2024-02-01", "previous: 1\n"),
		"003-broken.md": "no front matter",
	}}
	repo := &recordingRepository{}
	svc := NewPostService(NewContentStore(source), repo, "main")
	defer svc.Close()

	if err := svc.SyncContent(); err != nil {
		t.Fatalf("SyncContent() error = %v", err)
	}

	if repo.replaced != 1 {
		t.Errorf("ReplaceAll called %d times, want 1", repo.replaced)
	}
	if len(repo.posts) != 2 {
		t.Fatalf("indexed %d posts, want 2", len(repo.posts))
	}
	if repo.posts[0].ID != 1 || repo.posts[1].ID != 2 {
		t.Errorf("indexed ids = %d, %d, want 1, 2", repo.posts[0].ID, repo.posts[1].ID)
	}

	last, err := svc.LastSynced(context.Background())
	if err != nil || last.IsZero() {
		t.Errorf("LastSynced() = %v, %v, want a time", last, err)
	}
}

func TestPostService_SyncContent_WithoutIndex(t *testing.T) {
	source := &mapSource{units: map[string]string{"001-first.md": unit("1", "2024-01-01", "")}}
	store := NewContentStore(source)
	svc := NewPostService(store, nil, "main")
	defer svc.Close()

	if err := svc.SyncContent(); err != nil {
		t.Fatalf("SyncContent() error = %v", err)
	}

	last, err := svc.LastSynced(context.Background())
	if err != nil || !last.IsZero() {
		t.Errorf("LastSynced() = %v, %v, want zero time", last, err)
	}
}

func TestPostService_SyncContent_Errors(t *testing.T) {
	t.Run("Source unavailable", func(t *testing.T) {
		source := &mapSource{units: map[string]string{}, listErr: errors.New("offline")}
		svc := NewPostService(NewContentStore(source), &recordingRepository{}, "main")
		defer svc.Close()

		if err := svc.SyncContent(); err == nil {
			t.Error("SyncContent() error = nil, want error")
		}
	})

	t.Run("Index write fails", func(t *testing.T) {
		source := &mapSource{units: map[string]string{"001-first.md": unit("1", "2024-01-01", "")}}
		svc := NewPostService(NewContentStore(source), &recordingRepository{err: errors.New("disk full")}, "main")
		defer svc.Close()

		if err := svc.SyncContent(); err == nil {
			t.Error("SyncContent() error = nil, want error")
		}
	})
}

func TestPostService_HandlePushEvent(t *testing.T) {
	tests := []struct {
		name       string
		ref        string
		files      []string
		wantResync bool
	}{
		{name: "Main branch post change", ref: "refs/heads/main", files: []string{"posts/004-new.md"}, wantResync: true},
		{name: "Other branch", ref: "refs/heads/draft", files: []string{"posts/004-new.md"}, wantResync: false},
		{name: "Main branch without posts", ref: "refs/heads/main", files: []string{"README.md"}, wantResync: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &mapSource{units: map[string]string{"001-first.md": unit("1", "2024-01-01", "")}}
			repo := &recordingRepository{}
			svc := NewPostService(NewContentStore(source), repo, "main")

			evt := &github.PushEvent{
				Ref:        github.Ptr(tt.ref),
				After:      github.Ptr("abc123"),
				HeadCommit: &github.HeadCommit{Added: tt.files},
			}
			if err := svc.HandlePushEvent(evt); err != nil {
				t.Fatalf("HandlePushEvent() error = %v", err)
			}

			svc.wg.Wait()
			if err := svc.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			resynced := repo.replaced > 0
			if resynced != tt.wantResync {
				t.Errorf("resynced = %v, want %v", resynced, tt.wantResync)
			}
		})
	}
}

func TestPostService_HandlePushEvent_Nil(t *testing.T) {
	svc := NewPostService(NewContentStore(&mapSource{units: map[string]string{}}), nil, "main")
	defer svc.Close()

	if err := svc.HandlePushEvent(nil); err == nil {
		t.Error("HandlePushEvent(nil) error = nil, want error")
	}
}

func mainPush() *github.PushEvent {
	return &github.PushEvent{
		Ref:        github.Ptr("refs/heads/main"),
		After:      github.Ptr("abc123"),
		HeadCommit: &github.HeadCommit{Modified: []string{"posts/001-first.md"}},
	}
}

func TestPostService_HandlePushEvent_AfterClose(t *testing.T) {
	repo := &recordingRepository{}
	svc := NewPostService(NewContentStore(&mapSource{units: map[string]string{"001-first.md": unit("1", "2024-01-01", "")}}), repo, "main")
	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := svc.HandlePushEvent(mainPush()); !errors.Is(err, errServiceClosed) {
		t.Errorf("HandlePushEvent() error = %v, want %v", err, errServiceClosed)
	}
	if repo.replaced != 0 {
		t.Errorf("replaced = %d, want 0 after close", repo.replaced)
	}
}

func TestPostService_HandlePushEvent_ConcurrentClose(t *testing.T) {
	repo := &recordingRepository{}
	svc := NewPostService(NewContentStore(&mapSource{units: map[string]string{"001-first.md": unit("1", "2024-01-01", "")}}), repo, "main")

	var pushers sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		pushers.Go(func() {
			errs <- svc.HandlePushEvent(mainPush())
		})
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	repo.mu.Lock()
	afterClose := repo.replaced
	repo.mu.Unlock()

	pushers.Wait()
	close(errs)
	for err := range errs {
		if err != nil && !errors.Is(err, errServiceClosed) {
			t.Errorf("HandlePushEvent() error = %v, want nil or %v", err, errServiceClosed)
		}
	}

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.replaced != afterClose {
		t.Errorf("replaced = %d after Close returned %d, want no work after close", repo.replaced, afterClose)
	}
}
