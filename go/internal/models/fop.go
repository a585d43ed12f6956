package models

// FOPState defines what is happening on a field of play.
type FOPState string

const (
	FOPStateInactive    FOPState = "INACTIVE"
	FOPStateBreak       FOPState = "BREAK"
	FOPStateTimeStopped FOPState = "TIME_STOPPED"
	FOPStateTimeRunning FOPState = "TIME_RUNNING"
)

// Lifting reports whether an athlete can be on the clock in this state.
func (s FOPState) Lifting() bool {
	return s == FOPStateTimeStopped || s == FOPStateTimeRunning
}

// BreakType defines why lifting is paused.
type BreakType string

const (
	BreakBeforeIntroduction BreakType = "BEFORE_INTRODUCTION"
	BreakFirstSnatch        BreakType = "FIRST_SNATCH"
	BreakFirstCJ            BreakType = "FIRST_CJ"
	BreakGroupDone          BreakType = "GROUP_DONE"
	BreakJury               BreakType = "JURY"
	BreakChallenge          BreakType = "CHALLENGE"
	BreakMarshal            BreakType = "MARSHAL"
	BreakTechnical          BreakType = "TECHNICAL"
	BreakCeremony           BreakType = "CEREMONY"
)

// BreakTypes lists every break type in display order.
var BreakTypes = []BreakType{
	BreakBeforeIntroduction,
	BreakFirstSnatch,
	BreakFirstCJ,
	BreakGroupDone,
	BreakJury,
	BreakChallenge,
	BreakMarshal,
	BreakTechnical,
	BreakCeremony,
}

// IsCountdown reports whether the break is scheduled and runs a clock.
func (b BreakType) IsCountdown() bool {
	switch b {
	case BreakBeforeIntroduction, BreakFirstSnatch, BreakFirstCJ, BreakGroupDone:
		return true
	}
	return false
}

// Valid reports whether b is a known break type.
func (b BreakType) Valid() bool {
	for _, known := range BreakTypes {
		if b == known {
			return true
		}
	}
	return false
}

// DefaultCountdown is the countdown used when a console does not pick one.
func (b BreakType) DefaultCountdown() CountdownType {
	switch b {
	case BreakFirstSnatch, BreakFirstCJ:
		return CountdownDuration
	case BreakBeforeIntroduction, BreakGroupDone:
		return CountdownTarget
	default:
		return CountdownIndefinite
	}
}

// CountdownType defines how a break timer computes the time left.
type CountdownType string

const (
	CountdownDuration   CountdownType = "DURATION"
	CountdownTarget     CountdownType = "TARGET"
	CountdownIndefinite CountdownType = "INDEFINITE"
)

// Valid reports whether c is a known countdown type.
func (c CountdownType) Valid() bool {
	switch c {
	case CountdownDuration, CountdownTarget, CountdownIndefinite:
		return true
	}
	return false
}

// CeremonyType defines an activity run on top of a break.
type CeremonyType string

const (
	CeremonyIntroduction          CeremonyType = "INTRODUCTION"
	CeremonyOfficialsIntroduction CeremonyType = "OFFICIALS_INTRODUCTION"
	CeremonyMedals                CeremonyType = "MEDALS"
)

// Valid reports whether c is a known ceremony type.
func (c CeremonyType) Valid() bool {
	switch c {
	case CeremonyIntroduction, CeremonyOfficialsIntroduction, CeremonyMedals:
		return true
	}
	return false
}
