// Package session keeps the in-memory viewers behind the session cookie.
package session

import (
	"sync"
	"time"

	"github.com/dfryer1193/peakblog/blog/visibility"
	"github.com/dfryer1193/peakblog/internal/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Viewer is everything the blog remembers about one browser session.
type Viewer struct {
	ID       string
	Resolver *visibility.Resolver
	Gesture  *visibility.GestureDetector

	lastSeen time.Time
}

// Manager creates viewers on demand and forgets idle ones.
// Nothing is persisted: a restart locks every session again.
type Manager struct {
	clock        clock.Clock
	mode         visibility.Mode
	unlockClicks int

	mu      sync.Mutex
	viewers map[string]*Viewer
}

func NewManager(clk clock.Clock, mode visibility.Mode, unlockClicks int) *Manager {
	if unlockClicks < 1 {
		unlockClicks = visibility.DefaultUnlockClicks
	}
	return &Manager{
		clock:        clk,
		mode:         mode,
		unlockClicks: unlockClicks,
		viewers:      make(map[string]*Viewer),
	}
}

// Resolve returns the viewer for id, creating a fresh one when id is unknown
// or empty. The returned viewer's ID is the one the caller must keep.
func (m *Manager) Resolve(id string) (viewer *Viewer, created bool) {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.viewers[id]; ok && id != "" {
		v.lastSeen = now
		return v, false
	}

	v := &Viewer{
		ID:       uuid.NewString(),
		Resolver: visibility.NewResolver(visibility.NewSession(), m.clock, m.mode),
		Gesture:  visibility.NewGestureDetector(m.unlockClicks),
		lastSeen: now,
	}
	m.viewers[v.ID] = v
	return v, true
}

// Sweep drops viewers idle for longer than ttl and returns how many went.
func (m *Manager) Sweep(ttl time.Duration) int {
	cutoff := m.clock.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, v := range m.viewers {
		if v.lastSeen.Before(cutoff) {
			delete(m.viewers, id)
			removed++
		}
	}

	if removed > 0 {
		log.Debug().Int("removed", removed).Int("remaining", len(m.viewers)).Msg("Swept idle sessions")
	}
	return removed
}

// Len returns the number of live viewers.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.viewers)
}
