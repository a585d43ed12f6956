package fop

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/fop/timer"
	"github.com/mcdev12/barbell/go/internal/models"
)

// GroupSource supplies the athletes of a group. The returned group is
// treated as read-only; the session works on its own copy.
type GroupSource interface {
	Group(ctx context.Context, name string) (*models.Group, error)
}

// emission is a notification produced by a command before the loop stamps it
// with an id, a sequence number and the command's origin.
type emission struct {
	kind events.Kind
	data any
}

func emit(kind events.Kind, data any) emission {
	return emission{kind: kind, data: data}
}

// session is the authoritative state of one platform. It is owned by the
// command loop and never touched by another goroutine.
type session struct {
	cfg    Config
	clock  clockwork.Clock
	groups GroupSource

	state     models.FOPState
	breakType models.BreakType
	countdown models.CountdownType
	ceremony  models.CeremonyType

	group    *models.Group
	order    []*models.Athlete
	current  *models.Athlete // kept through breaks, exposed only while lifting
	previous *models.Athlete // last athlete judged

	athleteTimer *timer.Timer
	breakTimer   *timer.Timer

	lastStart time.Time
	lastStop  time.Time
}

func newSession(cfg Config, clock clockwork.Clock, groups GroupSource) *session {
	return &session{
		cfg:          cfg,
		clock:        clock,
		groups:       groups,
		state:        models.FOPStateInactive,
		athleteTimer: timer.New(timer.KindAthlete, clock),
		breakTimer:   timer.New(timer.KindBreak, clock),
	}
}

// apply validates cmd against the current state and mutates the session.
// A returned error leaves the session unchanged.
func (s *session) apply(ctx context.Context, cmd events.Command) ([]emission, error) {
	switch c := cmd.(type) {
	case events.StartLifting:
		return s.startLifting()
	case events.TimeStarted:
		return s.timeStarted()
	case events.TimeStopped:
		return s.timeStopped()
	case events.ForceTime:
		return s.forceTime(c)
	case events.BreakStarted:
		return s.breakStarted(c)
	case events.BreakPaused:
		return s.breakPaused(c)
	case events.BreakDone:
		return s.breakDone()
	case events.SwitchGroup:
		return s.switchGroup(ctx, c)
	case events.CeremonyStarted:
		return s.ceremonyStarted(c)
	case events.CeremonyDone:
		return s.ceremonyDone(c)
	case events.WeightChange:
		return s.weightChange(c)
	case events.Decision:
		return s.decision(c)
	case events.Notify:
		return s.notify(c)
	case events.JuryNotify:
		return s.juryNotify(c)
	default:
		return nil, fmt.Errorf("%w: unsupported command %T", ErrInvalidState, cmd)
	}
}

func (s *session) groupName() string {
	if s.group == nil {
		return ""
	}
	return s.group.Name
}

func (s *session) currentID() string {
	if s.current == nil {
		return ""
	}
	return s.current.ID
}

// enterBreak moves to BREAK with the break clock already configured.
func (s *session) enterBreak(bt models.BreakType, ct models.CountdownType) {
	s.athleteTimer.Stop()
	s.state = models.FOPStateBreak
	s.breakType = bt
	s.countdown = ct
	s.breakTimer.Start()
}

// leaveBreak clears every break descriptor and returns to lifting when an
// athlete is waiting, otherwise to INACTIVE.
func (s *session) leaveBreak() {
	s.breakTimer.Stop()
	s.breakType = ""
	s.countdown = ""
	s.ceremony = ""
	if s.current != nil && s.current.HasAttemptsLeft() {
		s.state = models.FOPStateTimeStopped
		return
	}
	s.current = nil
	s.state = models.FOPStateInactive
}

func (s *session) breakPayload() events.BreakPayload {
	p := events.BreakPayload{
		BreakType:     s.breakType,
		CountdownType: s.countdown,
		Target:        s.breakTimer.State().Target,
		Paused:        s.state == models.FOPStateBreak && !s.breakTimer.Running(),
		State:         s.state,
	}
	if s.state == models.FOPStateBreak && !s.breakTimer.Indefinite() {
		ms := s.breakTimer.LiveRemaining()
		p.RemainingMillis = &ms
	}
	return p
}

func (s *session) timePayload() events.TimePayload {
	return events.TimePayload{
		AthleteID:       s.currentID(),
		RemainingMillis: s.athleteTimer.LiveRemaining(),
	}
}

func (s *session) orderPayload() events.LiftingOrderPayload {
	return events.LiftingOrderPayload{
		Group:            s.groupName(),
		CurrentAthleteID: s.currentID(),
		Order:            orderEntries(s.order),
		RemainingMillis:  s.athleteTimer.LiveRemaining(),
	}
}

// snapshot copies the session into a Snapshot without live fields.
func (s *session) snapshot(platform string, seq uint64) Snapshot {
	snap := Snapshot{
		Platform:      platform,
		Seq:           seq,
		State:         s.state,
		BreakType:     s.breakType,
		CountdownType: s.countdown,
		Ceremony:      s.ceremony,
		Group:         s.groupName(),
		LiftingOrder:  orderEntries(s.order),
		AthleteTimer:  s.athleteTimer.State(),
		BreakTimer:    s.breakTimer.State(),
	}
	if s.state.Lifting() && s.current != nil {
		snap.CurrentAthlete = s.current.Clone()
	}
	return snap
}
