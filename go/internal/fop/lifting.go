package fop

import (
	"context"
	"fmt"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/models"
)

func (s *session) startLifting() ([]emission, error) {
	if s.group == nil {
		return nil, ErrNoGroup
	}
	if s.state != models.FOPStateInactive {
		return nil, fmt.Errorf("%w: lifting already started", ErrInvalidState)
	}
	s.order = liftingOrder(s.group.Athletes)
	first := nextLifter(s.order)
	if first == nil {
		return nil, ErrNoAthlete
	}
	s.current = first
	s.athleteTimer.SetTimeRemaining(s.clockFor(first), false)
	s.state = models.FOPStateTimeStopped
	return []emission{emit(events.KindStartLifting, s.orderPayload())}, nil
}

// clockFor is the time allowed to an athlete called to the bar.
func (s *session) clockFor(a *models.Athlete) int64 {
	if s.previous != nil && s.previous.ID == a.ID {
		return s.cfg.ConsecutiveClock.Milliseconds()
	}
	return s.cfg.AthleteClock.Milliseconds()
}

// reorder re-sorts the lifting order. Unless the clock is running for the
// athlete on the bar, the first athlete in order becomes current.
func (s *session) reorder() {
	s.order = liftingOrder(s.group.Athletes)
	if s.current == nil || s.athleteTimer.Running() {
		return
	}
	next := nextLifter(s.order)
	if next == nil || next == s.current {
		return
	}
	s.current = next
	s.athleteTimer.SetTimeRemaining(s.clockFor(next), false)
}

func (s *session) weightChange(c events.WeightChange) ([]emission, error) {
	if s.group == nil {
		return nil, ErrNoGroup
	}
	a := s.group.Athlete(c.AthleteID)
	if a == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAthlete, c.AthleteID)
	}
	if !a.HasAttemptsLeft() {
		return nil, fmt.Errorf("%w: %s has no attempts left", ErrInvalidState, c.AthleteID)
	}
	if floor := a.MinimumWeight(); c.Weight < floor {
		return nil, fmt.Errorf("%w: %d < %d", ErrWeightTooLow, c.Weight, floor)
	}

	attempt := a.NextAttempt()
	a.Attempts[attempt].Declared = c.Weight
	s.reorder()
	return []emission{
		emit(events.KindWeightChange, events.WeightChangePayload{
			AthleteID: a.ID,
			Attempt:   attempt + 1,
			Weight:    c.Weight,
		}),
		emit(events.KindLiftingOrderUpdated, s.orderPayload()),
	}, nil
}

func (s *session) decision(c events.Decision) ([]emission, error) {
	if !s.state.Lifting() {
		return nil, fmt.Errorf("%w: no attempt in progress", ErrInvalidState)
	}
	if s.current == nil {
		return nil, ErrNoAthlete
	}

	a := s.current
	attempt := a.NextAttempt()
	weight := a.NextWeight()
	now := s.clock.Now()
	s.athleteTimer.Stop()
	a.Attempts[attempt].Declared = weight
	a.Attempts[attempt].LiftedAt = &now
	if c.Good {
		a.Attempts[attempt].Result = models.AttemptGood
	} else {
		a.Attempts[attempt].Result = models.AttemptNoLift
	}
	s.previous = a

	out := []emission{emit(events.KindDecision, events.DecisionPayload{
		AthleteID: a.ID,
		Attempt:   attempt + 1,
		Weight:    weight,
		Good:      c.Good,
	})}

	s.order = liftingOrder(s.group.Athletes)
	next := nextLifter(s.order)
	if next == nil {
		s.current = nil
		out = append(out, emit(events.KindLiftingOrderUpdated, s.orderPayload()))
		s.breakTimer.SetTimeRemaining(0, true)
		s.enterBreak(models.BreakGroupDone, models.CountdownIndefinite)
		return append(out, emit(events.KindBreakStarted, s.breakPayload())), nil
	}
	s.current = next
	s.athleteTimer.SetTimeRemaining(s.clockFor(next), false)
	s.state = models.FOPStateTimeStopped
	return append(out, emit(events.KindLiftingOrderUpdated, s.orderPayload())), nil
}

func (s *session) switchGroup(ctx context.Context, c events.SwitchGroup) ([]emission, error) {
	var g *models.Group
	if c.Group != "" {
		if s.groups == nil {
			return nil, fmt.Errorf("%w: no group source configured", ErrNoGroup)
		}
		ctx, cancel := context.WithTimeout(ctx, s.cfg.GroupLoadTimeout)
		defer cancel()
		loaded, err := s.groups.Group(ctx, c.Group)
		if err != nil {
			return nil, fmt.Errorf("%w: load group %q: %v", ErrNoGroup, c.Group, err)
		}
		g = loaded.Clone()
	}

	s.athleteTimer.SetTimeRemaining(0, false)
	s.breakTimer.SetTimeRemaining(0, false)
	s.state = models.FOPStateInactive
	s.breakType = ""
	s.countdown = ""
	s.ceremony = ""
	s.group = g
	s.current = nil
	s.previous = nil
	s.order = nil
	if g != nil {
		s.order = liftingOrder(g.Athletes)
	}
	return []emission{
		emit(events.KindSwitchGroup, events.GroupPayload{Group: s.groupName()}),
		emit(events.KindLiftingOrderUpdated, s.orderPayload()),
	}, nil
}

func (s *session) notify(c events.Notify) ([]emission, error) {
	if c.Code == "" {
		return nil, fmt.Errorf("%w: notification code required", ErrInvalidState)
	}
	return []emission{emit(events.KindNotification, events.NoticePayload{Code: c.Code})}, nil
}

func (s *session) juryNotify(c events.JuryNotify) ([]emission, error) {
	if c.Code == "" {
		return nil, fmt.Errorf("%w: notification code required", ErrInvalidState)
	}
	if c.AthleteID != "" && s.group != nil && s.group.Athlete(c.AthleteID) == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAthlete, c.AthleteID)
	}
	return []emission{emit(events.KindJuryNotification, events.NoticePayload{
		Code:      c.Code,
		AthleteID: c.AthleteID,
	})}, nil
}
