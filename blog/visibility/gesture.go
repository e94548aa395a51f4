package visibility

import "sync"

// DefaultUnlockClicks is how many activations of the hidden element unlock the session.
const DefaultUnlockClicks = 5

// GestureDetector counts activations of the hidden unlock element on the home
// page. Reaching the threshold grants a global unlock exactly once; after that
// the detector is inert and the element should stop looking interactive.
type GestureDetector struct {
	mu        sync.Mutex
	threshold int
	count     int
	fired     bool
}

// NewGestureDetector returns a detector that fires on the threshold-th activation.
// Thresholds below one are raised to one.
func NewGestureDetector(threshold int) *GestureDetector {
	if threshold < 1 {
		threshold = 1
	}
	return &GestureDetector{threshold: threshold}
}

// Activate records one activation. It returns true only for the activation
// that performed the unlock.
func (g *GestureDetector) Activate(resolver *Resolver) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fired {
		return false
	}

	g.count++
	if g.count < g.threshold {
		return false
	}

	g.fired = true
	resolver.GrantGlobalUnlock()
	return true
}

// Armed reports whether the detector still reacts to activations.
func (g *GestureDetector) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.fired
}

// Remaining returns how many activations are left before the unlock fires.
func (g *GestureDetector) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.fired {
		return 0
	}
	return g.threshold - g.count
}
