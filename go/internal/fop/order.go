package fop

import (
	"cmp"
	"slices"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/models"
)

// liftingOrder sorts athletes the way the bar is loaded: athletes with
// attempts left first, snatch before clean & jerk, then lighter weight,
// lower attempt number, earlier previous lift, lot number and start number.
// Finished athletes follow in start order.
func liftingOrder(athletes []*models.Athlete) []*models.Athlete {
	out := slices.Clone(athletes)
	slices.SortStableFunc(out, compareLifters)
	return out
}

func compareLifters(a, b *models.Athlete) int {
	aLeft, bLeft := a.HasAttemptsLeft(), b.HasAttemptsLeft()
	if aLeft != bLeft {
		if aLeft {
			return -1
		}
		return 1
	}
	if !aLeft {
		return cmp.Compare(a.StartNumber, b.StartNumber)
	}
	if a.InSnatch() != b.InSnatch() {
		if a.InSnatch() {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(a.NextWeight(), b.NextWeight()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.NextAttempt(), b.NextAttempt()); c != 0 {
		return c
	}
	if c := a.PreviousLiftTime().Compare(b.PreviousLiftTime()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.LotNumber, b.LotNumber); c != 0 {
		return c
	}
	return cmp.Compare(a.StartNumber, b.StartNumber)
}

// nextLifter is the first athlete in order with attempts left, or nil.
func nextLifter(order []*models.Athlete) *models.Athlete {
	if len(order) == 0 || !order[0].HasAttemptsLeft() {
		return nil
	}
	return order[0]
}

func orderEntries(order []*models.Athlete) []events.OrderEntry {
	entries := make([]events.OrderEntry, 0, len(order))
	for _, a := range order {
		e := events.OrderEntry{
			AthleteID: a.ID,
			Name:      a.FullName(),
			Team:      a.Team,
		}
		if a.HasAttemptsLeft() {
			e.Attempt = a.NextAttempt() + 1
			e.Weight = a.NextWeight()
		}
		entries = append(entries, e)
	}
	return entries
}
