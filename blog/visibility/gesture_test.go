package visibility

import (
	"testing"

	"github.com/dfryer1193/peakblog/internal/clock"
)

func TestGestureDetector_UnlocksOnThreshold(t *testing.T) {
	r := NewResolver(NewSession(), clock.NewFake(testNow), Production)
	g := NewGestureDetector(3)

	if g.Activate(r) || g.Activate(r) {
		t.Fatal("unlocked before the threshold")
	}
	if r.Session().GloballyUnlocked() {
		t.Fatal("session unlocked before the threshold")
	}
	if got := g.Remaining(); got != 1 {
		t.Errorf("Remaining() = %d, want 1", got)
	}

	if !g.Activate(r) {
		t.Fatal("third activation did not report the unlock")
	}
	if !r.Session().GloballyUnlocked() {
		t.Error("session not unlocked after the threshold")
	}
	if g.Armed() {
		t.Error("detector still armed after unlocking")
	}
}

func TestGestureDetector_InertAfterUnlock(t *testing.T) {
	r := NewResolver(NewSession(), clock.NewFake(testNow), Production)
	g := NewGestureDetector(1)

	if !g.Activate(r) {
		t.Fatal("first activation did not unlock")
	}
	for i := 0; i < 5; i++ {
		if g.Activate(r) {
			t.Fatalf("activation %d after unlock reported another unlock", i)
		}
	}
	if got := g.Remaining(); got != 0 {
		t.Errorf("Remaining() = %d, want 0", got)
	}
}

func TestNewGestureDetector_ClampsThreshold(t *testing.T) {
	r := NewResolver(NewSession(), clock.NewFake(testNow), Production)
	g := NewGestureDetector(0)

	if !g.Activate(r) {
		t.Error("threshold 0 should behave like 1")
	}
}
