package fop

import (
	"fmt"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/models"
)

func (s *session) timeStarted() ([]emission, error) {
	now := s.clock.Now()
	if !s.lastStart.IsZero() && now.Sub(s.lastStart) < s.cfg.Debounce {
		return nil, errDebounced
	}
	switch s.state {
	case models.FOPStateTimeRunning:
		return nil, errIgnored
	case models.FOPStateTimeStopped:
	default:
		return nil, fmt.Errorf("%w: cannot start clock in %s", ErrInvalidState, s.state)
	}
	if s.current == nil {
		return nil, ErrNoAthlete
	}
	if s.athleteTimer.LiveRemaining() == 0 {
		return nil, fmt.Errorf("%w: no time left on athlete clock", ErrInvalidState)
	}

	s.athleteTimer.Start()
	s.state = models.FOPStateTimeRunning
	s.lastStart = now
	return []emission{emit(events.KindTimeStarted, s.timePayload())}, nil
}

func (s *session) timeStopped() ([]emission, error) {
	now := s.clock.Now()
	if !s.lastStop.IsZero() && now.Sub(s.lastStop) < s.cfg.Debounce {
		return nil, errDebounced
	}
	switch s.state {
	case models.FOPStateTimeStopped:
		return nil, errIgnored
	case models.FOPStateTimeRunning:
	default:
		return nil, fmt.Errorf("%w: cannot stop clock in %s", ErrInvalidState, s.state)
	}

	s.athleteTimer.Stop()
	s.state = models.FOPStateTimeStopped
	s.lastStop = now
	return []emission{emit(events.KindTimeStopped, s.timePayload())}, nil
}

func (s *session) forceTime(c events.ForceTime) ([]emission, error) {
	if s.state != models.FOPStateBreak && s.state != models.FOPStateTimeStopped {
		return nil, fmt.Errorf("%w: cannot force time in %s", ErrInvalidState, s.state)
	}
	s.athleteTimer.SetTimeRemaining(c.Millis, false)
	return []emission{emit(events.KindForceTime, s.timePayload())}, nil
}

func (s *session) breakStarted(c events.BreakStarted) ([]emission, error) {
	if c.BreakType == "" {
		return nil, ErrMissingBreakType
	}
	if !c.BreakType.Valid() {
		return nil, fmt.Errorf("%w: unknown break type %q", ErrInvalidState, c.BreakType)
	}
	ct := c.CountdownType
	if ct == "" {
		ct = c.BreakType.DefaultCountdown()
	}
	if !ct.Valid() {
		return nil, fmt.Errorf("%w: unknown countdown type %q", ErrInvalidState, ct)
	}

	reconfigure := s.state == models.FOPStateBreak
	switch ct {
	case models.CountdownDuration:
		resume := reconfigure && c.Millis <= 0 &&
			s.countdown == models.CountdownDuration &&
			!s.breakTimer.Running() && s.breakTimer.LiveRemaining() > 0
		if !resume {
			ms := c.Millis
			if ms <= 0 {
				ms = s.cfg.breakDuration(c.BreakType).Milliseconds()
			}
			s.breakTimer.SetTimeRemaining(ms, false)
		}
	case models.CountdownTarget:
		switch {
		case c.Target != nil:
			s.breakTimer.SetEnd(*c.Target)
		case reconfigure && s.breakTimer.State().Target != nil:
			s.breakTimer.Stop()
		default:
			return nil, fmt.Errorf("%w: target required for %s countdown", ErrInvalidState, ct)
		}
	case models.CountdownIndefinite:
		s.breakTimer.SetTimeRemaining(0, true)
	}

	s.enterBreak(c.BreakType, ct)
	return []emission{emit(events.KindBreakStarted, s.breakPayload())}, nil
}

func (s *session) breakPaused(c events.BreakPaused) ([]emission, error) {
	if s.state != models.FOPStateBreak {
		return nil, fmt.Errorf("%w: no break to pause", ErrInvalidState)
	}
	if !s.breakTimer.Running() {
		return nil, errIgnored
	}
	s.breakTimer.Stop()
	if c.RemainingMillis > 0 && !s.breakTimer.Indefinite() {
		s.breakTimer.SetTimeRemaining(c.RemainingMillis, false)
		s.countdown = models.CountdownDuration
	}
	return []emission{emit(events.KindBreakPaused, s.breakPayload())}, nil
}

func (s *session) breakDone() ([]emission, error) {
	if s.state != models.FOPStateBreak {
		return nil, fmt.Errorf("%w: no break to end", ErrInvalidState)
	}
	var out []emission
	if s.ceremony != "" {
		out = append(out, emit(events.KindCeremonyDone, events.CeremonyPayload{Ceremony: s.ceremony}))
	}
	bt := s.breakType
	s.leaveBreak()
	p := s.breakPayload()
	p.BreakType = bt
	return append(out, emit(events.KindBreakDone, p)), nil
}
