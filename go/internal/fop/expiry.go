package fop

import (
	"fmt"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/fop/timer"
	"github.com/mcdev12/barbell/go/internal/models"
)

// ExpiryAction is what the field of play does when a clock reaches zero.
type ExpiryAction int

const (
	// ExpiryFreeze stops the clock at zero and waits for a console.
	ExpiryFreeze ExpiryAction = iota
	// ExpiryEndBreak ends the break as if BreakDone had been posted.
	// It only applies to the break clock.
	ExpiryEndBreak
)

// ExpiryPolicy decides what a clock reaching zero means for the current state.
type ExpiryPolicy func(snap Snapshot, kind timer.Kind) ExpiryAction

// FreezeOnExpiry never acts on its own.
func FreezeOnExpiry(Snapshot, timer.Kind) ExpiryAction {
	return ExpiryFreeze
}

// EndCountdownBreaks ends scheduled breaks when their clock runs out.
func EndCountdownBreaks(snap Snapshot, kind timer.Kind) ExpiryAction {
	if kind == timer.KindBreak && snap.BreakType.IsCountdown() {
		return ExpiryEndBreak
	}
	return ExpiryFreeze
}

// ParseExpiryPolicy maps a configuration name to a policy.
func ParseExpiryPolicy(name string) (ExpiryPolicy, error) {
	switch name {
	case "", "freeze":
		return FreezeOnExpiry, nil
	case "end_break":
		return EndCountdownBreaks, nil
	default:
		return nil, fmt.Errorf("unknown expiry policy %q", name)
	}
}

func (s *session) timerFor(kind timer.Kind) *timer.Timer {
	if kind == timer.KindBreak {
		return s.breakTimer
	}
	return s.athleteTimer
}

// expired reports whether the clock is still due. The tick task only reads a
// published copy, so the loop re-checks before acting.
func (s *session) expired(kind timer.Kind) bool {
	return s.timerFor(kind).State().Expired(s.clock.Now())
}

func (s *session) expire(kind timer.Kind, action ExpiryAction) []emission {
	if kind == timer.KindAthlete {
		s.athleteTimer.Stop()
		if s.state == models.FOPStateTimeRunning {
			s.state = models.FOPStateTimeStopped
		}
		return []emission{emit(events.KindTimeOver, s.timePayload())}
	}

	s.breakTimer.Stop()
	out := []emission{emit(events.KindBreakTimeOver, s.breakPayload())}
	if action == ExpiryEndBreak && s.state == models.FOPStateBreak {
		done, err := s.breakDone()
		if err == nil {
			out = append(out, done...)
		}
	}
	return out
}
