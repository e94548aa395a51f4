package visibility

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dfryer1193/peakblog/internal/clock"
)

// Mode is the build/runtime mode of the blog.
type Mode string

const (
	// Production gates future posts.
	Production Mode = "production"
	// Development shows every post so authors can preview unpublished work locally.
	// It is a convenience bypass, not a security control.
	Development Mode = "development"
)

// ParseMode converts a configuration value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Production, Development:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be %q or %q", s, Production, Development)
	}
}

// Resolver answers access questions for one Session.
type Resolver struct {
	session *Session
	clock   clock.Clock
	mode    Mode
}

// NewResolver binds a session to the clock and mode the blog runs with.
func NewResolver(session *Session, clk clock.Clock, mode Mode) *Resolver {
	return &Resolver{
		session: session,
		clock:   clk,
		mode:    mode,
	}
}

// CanAccessPost reports whether the session may see the post right now.
func (r *Resolver) CanAccessPost(id int, publishedDate time.Time) bool {
	return r.CanAccessPostAt(id, publishedDate, r.clock.Now())
}

// CanAccessPostAt is CanAccessPost evaluated at an explicit instant. It depends
// only on the post's own id and date plus the session; unknown ids are fine.
func (r *Resolver) CanAccessPostAt(id int, publishedDate, now time.Time) bool {
	if r.mode == Development {
		return true
	}
	if !publishedDate.After(now) {
		return true
	}
	if r.session.GloballyUnlocked() {
		return true
	}
	return r.session.PostUnlocked(id)
}

// IsFuture reports whether the date is after the resolver's current time,
// regardless of whether the session can see it.
func (r *Resolver) IsFuture(publishedDate time.Time) bool {
	return publishedDate.After(r.clock.Now())
}

// GrantGlobalUnlock makes every post visible for the rest of the session.
// Calling it again has no further effect.
func (r *Resolver) GrantGlobalUnlock() {
	r.session.unlockAll()
}

// GrantPostUnlock makes a single post visible for the rest of the session.
// Calling it again has no further effect.
func (r *Resolver) GrantPostUnlock(id int) {
	r.session.unlockPost(id)
}

// Session returns the session the resolver reads.
func (r *Resolver) Session() *Session {
	return r.session
}

// TokenMatches reports whether a supplied preview token unlocks a post whose
// stored token is stored. Comparison is exact and case-sensitive; a post
// without a token can never be unlocked this way.
func TokenMatches(stored, supplied string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
