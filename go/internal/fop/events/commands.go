package events

import (
	"time"

	"github.com/mcdev12/barbell/go/internal/models"
)

// Command is a request posted to a field of play by a console.
type Command interface {
	Kind() Kind
	isCommand()
}

// StartLifting computes the lifting order and puts the first athlete up.
type StartLifting struct{}

// TimeStarted starts the athlete clock.
type TimeStarted struct{}

// TimeStopped stops the athlete clock.
type TimeStopped struct{}

// ForceTime overwrites the athlete clock without starting it.
type ForceTime struct {
	Millis int64
}

// BreakStarted interrupts lifting. CountdownType may be left empty to use the
// break type's default; Millis is used by DURATION and Target by TARGET.
type BreakStarted struct {
	BreakType     models.BreakType
	CountdownType models.CountdownType
	Millis        int64
	Target        *time.Time
}

// BreakPaused freezes the break clock. RemainingMillis, when positive,
// replaces the computed time left.
type BreakPaused struct {
	RemainingMillis int64
}

// BreakDone ends the current break.
type BreakDone struct{}

// SwitchGroup loads another group on the platform. An empty name unloads.
type SwitchGroup struct {
	Group string
}

// CeremonyStarted overlays a ceremony on a break.
type CeremonyStarted struct {
	Ceremony models.CeremonyType
	Group    string
	Category string
}

// CeremonyDone ends a ceremony.
type CeremonyDone struct {
	Ceremony models.CeremonyType
}

// WeightChange declares the weight of an athlete's next attempt.
type WeightChange struct {
	AthleteID string
	Weight    int
}

// Decision records the referees' verdict on the athlete on the clock.
type Decision struct {
	Good bool
}

// Notify broadcasts a code for every display to render.
type Notify struct {
	Code Code
}

// JuryNotify broadcasts a jury code, optionally about an athlete.
type JuryNotify struct {
	Code      Code
	AthleteID string
}

func (StartLifting) Kind() Kind    { return KindStartLifting }
func (TimeStarted) Kind() Kind     { return KindTimeStarted }
func (TimeStopped) Kind() Kind     { return KindTimeStopped }
func (ForceTime) Kind() Kind       { return KindForceTime }
func (BreakStarted) Kind() Kind    { return KindBreakStarted }
func (BreakPaused) Kind() Kind     { return KindBreakPaused }
func (BreakDone) Kind() Kind       { return KindBreakDone }
func (SwitchGroup) Kind() Kind     { return KindSwitchGroup }
func (CeremonyStarted) Kind() Kind { return KindCeremonyStarted }
func (CeremonyDone) Kind() Kind    { return KindCeremonyDone }
func (WeightChange) Kind() Kind    { return KindWeightChange }
func (Decision) Kind() Kind        { return KindDecision }
func (Notify) Kind() Kind          { return KindNotification }
func (JuryNotify) Kind() Kind      { return KindJuryNotification }

func (StartLifting) isCommand()    {}
func (TimeStarted) isCommand()     {}
func (TimeStopped) isCommand()     {}
func (ForceTime) isCommand()       {}
func (BreakStarted) isCommand()    {}
func (BreakPaused) isCommand()     {}
func (BreakDone) isCommand()       {}
func (SwitchGroup) isCommand()     {}
func (CeremonyStarted) isCommand() {}
func (CeremonyDone) isCommand()    {}
func (WeightChange) isCommand()    {}
func (Decision) isCommand()        {}
func (Notify) isCommand()          {}
func (JuryNotify) isCommand()      {}
