package models

import "time"

// AttemptsPerLift is the number of tries an athlete gets at each lift.
const AttemptsPerLift = 3

// TotalAttempts covers the snatch followed by the clean & jerk.
const TotalAttempts = 2 * AttemptsPerLift

// AttemptResult records the referee outcome of an attempt.
type AttemptResult string

const (
	AttemptPending AttemptResult = ""
	AttemptGood    AttemptResult = "GOOD"
	AttemptNoLift  AttemptResult = "NO_LIFT"
)

// Attempt is one declared lift and its outcome.
type Attempt struct {
	Declared int           `json:"declared"`
	Result   AttemptResult `json:"result,omitempty"`
	LiftedAt *time.Time    `json:"lifted_at,omitempty"`
}

// Done reports whether the attempt has been judged.
func (a Attempt) Done() bool {
	return a.Result != AttemptPending
}

// Athlete is the slice of athlete data the field of play works with.
type Athlete struct {
	ID          string                 `json:"id"`
	FirstName   string                 `json:"first_name"`
	LastName    string                 `json:"last_name"`
	Team        string                 `json:"team,omitempty"`
	Category    string                 `json:"category,omitempty"`
	BodyWeight  float64                `json:"body_weight,omitempty"`
	StartNumber int                    `json:"start_number"`
	LotNumber   int                    `json:"lot_number"`
	Attempts    [TotalAttempts]Attempt `json:"attempts"`
}

// FullName returns "LASTNAME Firstname" ordering used on scoreboards.
func (a *Athlete) FullName() string {
	if a.FirstName == "" {
		return a.LastName
	}
	return a.LastName + " " + a.FirstName
}

// AttemptsDone counts judged attempts. Attempts are always taken in order.
func (a *Athlete) AttemptsDone() int {
	n := 0
	for _, att := range a.Attempts {
		if !att.Done() {
			break
		}
		n++
	}
	return n
}

// HasAttemptsLeft reports whether the athlete still has to lift.
func (a *Athlete) HasAttemptsLeft() bool {
	return a.AttemptsDone() < TotalAttempts
}

// NextAttempt is the zero-based index of the next attempt, or -1 when done.
func (a *Athlete) NextAttempt() int {
	n := a.AttemptsDone()
	if n >= TotalAttempts {
		return -1
	}
	return n
}

// InSnatch reports whether the next attempt is a snatch.
func (a *Athlete) InSnatch() bool {
	n := a.NextAttempt()
	return n >= 0 && n < AttemptsPerLift
}

// NextWeight is the weight requested for the next attempt. When nothing was
// declared it follows the automatic progression from the previous attempt.
func (a *Athlete) NextWeight() int {
	n := a.NextAttempt()
	if n < 0 {
		return 0
	}
	if a.Attempts[n].Declared > 0 {
		return a.Attempts[n].Declared
	}
	return a.MinimumWeight()
}

// MinimumWeight is the lowest weight the next attempt may be declared at.
func (a *Athlete) MinimumWeight() int {
	n := a.NextAttempt()
	if n <= 0 || n == AttemptsPerLift {
		return 1
	}
	prev := a.Attempts[n-1]
	if prev.Result == AttemptGood {
		return prev.Declared + 1
	}
	return prev.Declared
}

// PreviousLiftTime is when the athlete last lifted, zero if never.
func (a *Athlete) PreviousLiftTime() time.Time {
	n := a.AttemptsDone()
	if n == 0 || a.Attempts[n-1].LiftedAt == nil {
		return time.Time{}
	}
	return *a.Attempts[n-1].LiftedAt
}

// Clone returns a deep copy.
func (a *Athlete) Clone() *Athlete {
	if a == nil {
		return nil
	}
	c := *a
	for i, att := range a.Attempts {
		if att.LiftedAt != nil {
			t := *att.LiftedAt
			c.Attempts[i].LiftedAt = &t
		}
	}
	return &c
}

// Group is a session of athletes lifting together on one platform.
type Group struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Platform    string     `json:"platform,omitempty"`
	Athletes    []*Athlete `json:"athletes"`
}

// Athlete finds an athlete of the group by id.
func (g *Group) Athlete(id string) *Athlete {
	if g == nil {
		return nil
	}
	for _, a := range g.Athletes {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// Clone returns a deep copy so the caller can mutate attempts freely.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	c := *g
	c.Athletes = make([]*Athlete, len(g.Athletes))
	for i, a := range g.Athletes {
		c.Athletes[i] = a.Clone()
	}
	return &c
}
