package presentation

import (
	"errors"
	"sync"
)

// ErrStaleNavigation is returned when a load finishes after its navigation was
// abandoned. Its result must be discarded.
var ErrStaleNavigation = errors.New("navigation superseded by a newer one")

// State is where a detail page load stands.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateNotFound
	StateFutureLocked
	StateRendered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateNotFound:
		return "not-found"
	case StateFutureLocked:
		return "future-locked"
	case StateRendered:
		return "rendered"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a navigation.
func (s State) Terminal() bool {
	return s == StateNotFound || s == StateFutureLocked || s == StateRendered
}

// Ticket identifies one navigation started by Navigator.Begin.
type Ticket struct {
	seq    uint64
	PostID int
}

// Navigator tracks the current navigation target of one view. Only the most
// recent navigation may publish its outcome.
type Navigator struct {
	mu      sync.Mutex
	seq     uint64
	current Ticket
	state   State
}

func NewNavigator() *Navigator {
	return &Navigator{}
}

// Begin starts a navigation to postID and supersedes any in flight.
func (n *Navigator) Begin(postID int) Ticket {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.seq++
	n.current = Ticket{seq: n.seq, PostID: postID}
	n.state = StateLoading
	return n.current
}

// Finish applies a terminal state for t. It returns ErrStaleNavigation and
// changes nothing when t is no longer the current navigation.
func (n *Navigator) Finish(t Ticket, state State) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t.seq != n.current.seq {
		return ErrStaleNavigation
	}
	n.state = state
	return nil
}

// Current returns the post id of the latest navigation and its state.
func (n *Navigator) Current() (int, State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current.PostID, n.state
}
