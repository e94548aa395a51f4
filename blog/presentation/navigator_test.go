package presentation

import (
	"errors"
	"testing"
)

func TestNavigator_LatestWins(t *testing.T) {
	nav := NewNavigator()

	first := nav.Begin(1)
	second := nav.Begin(2)

	if err := nav.Finish(first, StateRendered); !errors.Is(err, ErrStaleNavigation) {
		t.Errorf("Finish(first) error = %v, want %v", err, ErrStaleNavigation)
	}
	if id, state := nav.Current(); id != 2 || state != StateLoading {
		t.Errorf("Current() = %d, %s, want 2, loading", id, state)
	}

	if err := nav.Finish(second, StateNotFound); err != nil {
		t.Fatalf("Finish(second) error = %v", err)
	}
	if id, state := nav.Current(); id != 2 || state != StateNotFound {
		t.Errorf("Current() = %d, %s, want 2, not-found", id, state)
	}
}

func TestNavigator_SameTargetTwice(t *testing.T) {
	nav := NewNavigator()

	old := nav.Begin(5)
	nav.Begin(5)

	if err := nav.Finish(old, StateRendered); !errors.Is(err, ErrStaleNavigation) {
		t.Errorf("Finish(old) error = %v, want %v", err, ErrStaleNavigation)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		want     string
		terminal bool
	}{
		{StateIdle, "idle", false},
		{StateLoading, "loading", false},
		{StateNotFound, "not-found", true},
		{StateFutureLocked, "future-locked", true},
		{StateRendered, "rendered", true},
		{State(42), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if got := tt.state.Terminal(); got != tt.terminal {
				t.Errorf("Terminal() = %v, want %v", got, tt.terminal)
			}
		})
	}
}
