package presentation

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dfryer1193/peakblog/blog/application"
	"github.com/dfryer1193/peakblog/blog/domain"
	"github.com/dfryer1193/peakblog/blog/visibility"
)

func detailStore() *memStore {
	return newMemStore(
		post(10, "2025-01-01", withLinks(0, 11)),
		post(11, "2025-02-01", withLinks(10, 20), func(p *domain.Post) { p.Content = "# Eleven\n\nSecond **part**." }),
		post(20, "2025-11-04", withToken("xk29dlmqa2"), withLinks(11, 21)),
		post(21, "2025-12-01", withToken("other-token"), withLinks(20, 0)),
		post(30, "2026-03-01"),
	)
}

func newDetailView(store *memStore) *DetailView {
	return NewDetailView(store, application.NewMarkdownRenderer("/", ""))
}

func TestDetailView_PreviewTokenScenario(t *testing.T) {
	view := newDetailView(detailStore())
	resolver := newResolver(visibility.Production)
	ctx := context.Background()

	page, err := view.Load(ctx, NewNavigator(), resolver, 20, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if page.State != StateFutureLocked {
		t.Fatalf("State = %s, want %s", page.State, StateFutureLocked)
	}
	if page.Post != nil || page.HTML != "" {
		t.Errorf("locked page carries content: %+v", page)
	}

	page, err = view.Load(ctx, NewNavigator(), resolver, 20, "xk29dlmqa2")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if page.State != StateRendered {
		t.Fatalf("State = %s, want %s", page.State, StateRendered)
	}
	if !page.Future {
		t.Errorf("Future = false, want true")
	}
	if page.PreviousID != 11 {
		t.Errorf("PreviousID = %d, want 11", page.PreviousID)
	}
	if page.NextID != 0 {
		t.Errorf("NextID = %d, want 0 while post 21 is locked", page.NextID)
	}
	if !resolver.Session().PostUnlocked(20) {
		t.Errorf("session does not record the unlock of post 20")
	}
	if resolver.Session().GloballyUnlocked() {
		t.Errorf("preview token unlocked the whole session")
	}

	// the unlock outlives the query parameter
	page, err = view.Load(ctx, NewNavigator(), resolver, 20, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if page.State != StateRendered {
		t.Errorf("State = %s, want %s after unlock", page.State, StateRendered)
	}
}

func TestDetailView_Load(t *testing.T) {
	tests := []struct {
		name      string
		mode      visibility.Mode
		global    bool
		id        int
		token     string
		wantState State
		wantPrev  int
		wantNext  int
	}{
		{name: "Unknown id", mode: visibility.Production, id: 99, wantState: StateNotFound},
		{name: "Past post with accessible next", mode: visibility.Production, id: 10, wantState: StateRendered, wantNext: 11},
		{name: "Next hidden when future", mode: visibility.Production, id: 11, wantState: StateRendered, wantPrev: 10},
		{name: "Wrong token", mode: visibility.Production, id: 20, token: "XK29DLMQA2", wantState: StateFutureLocked},
		{name: "Token of another post", mode: visibility.Production, id: 20, token: "other-token", wantState: StateFutureLocked},
		{name: "Future post without token field", mode: visibility.Production, id: 30, token: "anything", wantState: StateFutureLocked},
		{name: "Global unlock", mode: visibility.Production, global: true, id: 20, wantState: StateRendered, wantPrev: 11, wantNext: 21},
		{name: "Development mode", mode: visibility.Development, id: 11, wantState: StateRendered, wantPrev: 10, wantNext: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := newResolver(tt.mode)
			if tt.global {
				resolver.GrantGlobalUnlock()
			}

			page, err := newDetailView(detailStore()).Load(context.Background(), NewNavigator(), resolver, tt.id, tt.token)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if page.State != tt.wantState {
				t.Fatalf("State = %s, want %s", page.State, tt.wantState)
			}
			if tt.wantState != StateRendered {
				if page.Post != nil {
					t.Errorf("Post = %+v, want nil", page.Post)
				}
				return
			}
			if page.PreviousID != tt.wantPrev {
				t.Errorf("PreviousID = %d, want %d", page.PreviousID, tt.wantPrev)
			}
			if page.NextID != tt.wantNext {
				t.Errorf("NextID = %d, want %d", page.NextID, tt.wantNext)
			}
		})
	}
}

func TestDetailView_NextLinkFollowsGlobalUnlock(t *testing.T) {
	view := newDetailView(detailStore())
	resolver := newResolver(visibility.Production)
	ctx := context.Background()

	page, err := view.Load(ctx, NewNavigator(), resolver, 11, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if page.NextID != 0 {
		t.Errorf("NextID = %d, want 0 before unlock", page.NextID)
	}
	if page.PreviousID != 10 {
		t.Errorf("PreviousID = %d, want 10", page.PreviousID)
	}

	resolver.GrantGlobalUnlock()

	page, err = view.Load(ctx, NewNavigator(), resolver, 11, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if page.NextID != 20 {
		t.Errorf("NextID = %d, want 20 after unlock", page.NextID)
	}
	if page.PreviousID != 10 {
		t.Errorf("PreviousID = %d, want 10", page.PreviousID)
	}
}

func TestDetailView_RendersMarkdown(t *testing.T) {
	page, err := newDetailView(detailStore()).Load(context.Background(), NewNavigator(), newResolver(visibility.Production), 11, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !strings.Contains(string(page.HTML), "<strong>part</strong>") {
		t.Errorf("HTML = %q, want rendered markdown", page.HTML)
	}
	if page.Post == nil || page.Post.ID != 11 {
		t.Errorf("Post = %+v, want post 11", page.Post)
	}
}

func TestDetailView_StaleNavigation(t *testing.T) {
	store := detailStore()
	nav := NewNavigator()
	store.beforeGet = func(id int) {
		if id == 10 {
			nav.Begin(11)
		}
	}

	_, err := newDetailView(store).Load(context.Background(), nav, newResolver(visibility.Production), 10, "")
	if !errors.Is(err, ErrStaleNavigation) {
		t.Fatalf("Load() error = %v, want %v", err, ErrStaleNavigation)
	}
	if id, state := nav.Current(); id != 11 || state != StateLoading {
		t.Errorf("Current() = %d, %s, want 11, loading", id, state)
	}
}

func TestDetailView_ConcurrentViewsShareSession(t *testing.T) {
	store := detailStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	store.beforeGet = func(id int) {
		if id == 10 {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	}

	view := newDetailView(store)
	resolver := newResolver(visibility.Production)

	type result struct {
		page *Page
		err  error
	}
	first := make(chan result, 1)
	go func() {
		page, err := view.Load(context.Background(), NewNavigator(), resolver, 10, "")
		first <- result{page: page, err: err}
	}()
	<-entered

	second, err := view.Load(context.Background(), NewNavigator(), resolver, 11, "")
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if second.State != StateRendered {
		t.Errorf("second State = %s, want %s", second.State, StateRendered)
	}

	close(release)
	got := <-first
	if got.err != nil {
		t.Fatalf("first Load() error = %v", got.err)
	}
	if got.page.State != StateRendered {
		t.Errorf("first State = %s, want %s", got.page.State, StateRendered)
	}
	if got.page.NextID != 11 {
		t.Errorf("first NextID = %d, want 11", got.page.NextID)
	}
}

func TestDetailView_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDetailView(detailStore()).Load(ctx, NewNavigator(), newResolver(visibility.Production), 10, "")
	if !errors.Is(err, ErrStaleNavigation) {
		t.Errorf("Load() error = %v, want %v", err, ErrStaleNavigation)
	}
}

func TestDetailView_StoreError(t *testing.T) {
	store := detailStore()
	store.err = errBackend

	_, err := newDetailView(store).Load(context.Background(), NewNavigator(), newResolver(visibility.Production), 10, "")
	if !errors.Is(err, errBackend) {
		t.Errorf("Load() error = %v, want %v", err, errBackend)
	}
}
