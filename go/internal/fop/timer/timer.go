// Package timer holds the two countdown clocks owned by a field of play.
//
// A Timer is not safe for concurrent use: it is owned by the FOP command loop.
// Readers outside the loop work on a State copy, whose LiveRemaining is a pure
// function of the stored fields and the wall-clock instant passed in.
package timer

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"
)

// Kind identifies which clock of a field of play a timer is.
type Kind string

const (
	KindAthlete Kind = "athlete"
	KindBreak   Kind = "break"
)

// NoExpiry is returned by LiveRemaining for indefinite timers.
const NoExpiry int64 = math.MaxInt64

// State is an immutable copy of a timer.
type State struct {
	RemainingMillis int64      `json:"remaining_ms"`
	Running         bool       `json:"running"`
	Indefinite      bool       `json:"indefinite"`
	Target          *time.Time `json:"target,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
}

// LiveRemaining computes the time left at now, in milliseconds.
// Target mode is re-derived from the target on every call so a paused and
// resumed clock catches up with the wall clock.
func (s State) LiveRemaining(now time.Time) int64 {
	if s.Indefinite {
		return NoExpiry
	}
	if s.Target != nil {
		return clamp(s.Target.Sub(now).Milliseconds())
	}
	if !s.Running {
		return clamp(s.RemainingMillis)
	}
	elapsed := now.Sub(s.StartedAt).Milliseconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return clamp(s.RemainingMillis - elapsed)
}

// Expired reports whether a running, finite countdown has reached zero.
func (s State) Expired(now time.Time) bool {
	return s.Running && !s.Indefinite && s.LiveRemaining(now) == 0
}

func clamp(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}

// Timer is a countdown clock with pause/resume and target-time modes.
type Timer struct {
	kind  Kind
	clock clockwork.Clock
	state State
}

// New creates a stopped timer with no time on it.
func New(kind Kind, clock clockwork.Clock) *Timer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Timer{kind: kind, clock: clock}
}

// Kind returns which clock this is.
func (t *Timer) Kind() Kind { return t.kind }

// Running reports whether the countdown is running.
func (t *Timer) Running() bool { return t.state.Running }

// Indefinite reports whether the timer has no expiry.
func (t *Timer) Indefinite() bool { return t.state.Indefinite }

// Start runs the countdown. Starting a running timer does nothing.
func (t *Timer) Start() {
	if t.state.Running {
		return
	}
	t.state.StartedAt = t.clock.Now()
	t.state.Running = true
}

// Stop pauses the countdown and keeps the time left. Stopping a stopped timer
// does nothing.
func (t *Timer) Stop() {
	if !t.state.Running {
		return
	}
	if !t.state.Indefinite {
		t.state.RemainingMillis = t.state.LiveRemaining(t.clock.Now())
	}
	t.state.Running = false
}

// SetTimeRemaining stops the countdown and overwrites the time left.
func (t *Timer) SetTimeRemaining(ms int64, indefinite bool) {
	t.Stop()
	t.state.RemainingMillis = clamp(ms)
	t.state.Indefinite = indefinite
	t.state.Target = nil
}

// SetEnd stops the countdown and switches it to counting toward target.
func (t *Timer) SetEnd(target time.Time) {
	t.Stop()
	end := target
	t.state.Target = &end
	t.state.Indefinite = false
	t.state.RemainingMillis = t.state.LiveRemaining(t.clock.Now())
}

// LiveRemaining is the time left now.
func (t *Timer) LiveRemaining() int64 {
	return t.state.LiveRemaining(t.clock.Now())
}

// State returns a copy safe to hand to other goroutines.
func (t *Timer) State() State {
	s := t.state
	if s.Target != nil {
		end := *s.Target
		s.Target = &end
	}
	return s
}
