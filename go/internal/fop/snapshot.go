package fop

import (
	"time"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/fop/timer"
	"github.com/mcdev12/barbell/go/internal/models"
)

// Snapshot is a read-only view of a field of play at a given instant.
// Seq is the sequence number of the last broadcast reflected in it: a late
// joiner drops broadcast deltas with Seq <= Snapshot.Seq. Private notices
// (Denied) carry Seq 0 and are never dropped by that rule.
type Snapshot struct {
	Platform       string               `json:"platform"`
	Seq            uint64               `json:"seq"`
	At             time.Time            `json:"at"`
	State          models.FOPState      `json:"state"`
	BreakType      models.BreakType     `json:"break_type,omitempty"`
	CountdownType  models.CountdownType `json:"countdown_type,omitempty"`
	Ceremony       models.CeremonyType  `json:"ceremony,omitempty"`
	Group          string               `json:"group,omitempty"`
	CurrentAthlete *models.Athlete      `json:"current_athlete,omitempty"`
	LiftingOrder   []events.OrderEntry  `json:"lifting_order"`
	AthleteTimer   timer.State          `json:"athlete_timer"`
	BreakTimer     timer.State          `json:"break_timer"`

	AthleteRemainingMillis int64  `json:"athlete_remaining_ms"`
	BreakRemainingMillis   *int64 `json:"break_remaining_ms,omitempty"` // nil when indefinite or no break
}

// Timer returns the stored state of the given clock.
func (s Snapshot) Timer(kind timer.Kind) timer.State {
	if kind == timer.KindBreak {
		return s.BreakTimer
	}
	return s.AthleteTimer
}

// render fills the live fields for now. Shared slices are not copied; a
// published snapshot is never mutated.
func (s Snapshot) render(now time.Time) Snapshot {
	s.At = now
	s.AthleteRemainingMillis = s.AthleteTimer.LiveRemaining(now)
	s.BreakRemainingMillis = nil
	if s.State == models.FOPStateBreak && !s.BreakTimer.Indefinite {
		ms := s.BreakTimer.LiveRemaining(now)
		s.BreakRemainingMillis = &ms
	}
	return s
}
