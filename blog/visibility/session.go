// Package visibility decides whether a viewer may see a post.
//
// A post is accessible when its publish date is not in the future, when the
// viewer's session has been globally unlocked, when the post was unlocked for
// the session with its preview token, or when the blog runs in development
// mode. The Resolver is the only place that makes this decision.
package visibility

import (
	"slices"
	"sync"
)

// Session is the unlock state of one viewer. It lives in memory for as long as
// the viewer's browser session and only ever grows: nothing can re-lock a post.
//
// Session exposes read accessors only. State changes go through a Resolver.
type Session struct {
	mu               sync.RWMutex
	globallyUnlocked bool
	unlockedPostIDs  map[int]struct{}
}

// NewSession returns a locked session.
func NewSession() *Session {
	return &Session{
		unlockedPostIDs: make(map[int]struct{}),
	}
}

// GloballyUnlocked reports whether every future post is visible to this session.
func (s *Session) GloballyUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.globallyUnlocked
}

// PostUnlocked reports whether the post was individually unlocked.
func (s *Session) PostUnlocked(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.unlockedPostIDs[id]
	return ok
}

// UnlockedPostIDs returns the individually unlocked ids in ascending order.
func (s *Session) UnlockedPostIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.unlockedPostIDs))
	for id := range s.unlockedPostIDs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Session) unlockAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globallyUnlocked = true
}

func (s *Session) unlockPost(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlockedPostIDs[id] = struct{}{}
}
