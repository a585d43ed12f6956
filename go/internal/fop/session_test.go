package fop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/models"
)

func TestScenario_LiftingThroughJuryBreak(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.loadGroup("M8")
	require.Equal(t, models.FOPStateInactive, h.fop.Snapshot().State)

	h.post(events.StartLifting{})
	start := h.expect(events.KindStartLifting)[0].Data.(events.LiftingOrderPayload)
	snap := h.fop.Snapshot()
	require.Equal(t, models.FOPStateTimeStopped, snap.State)
	require.NotNil(t, snap.CurrentAthlete)
	require.Equal(t, "b2", snap.CurrentAthlete.ID, "snatch attempts come before clean & jerk")
	require.Equal(t, "b2", start.CurrentAthleteID)
	order := snap.LiftingOrder

	h.post(events.TimeStarted{})
	h.expect(events.KindTimeStarted)
	snap = h.fop.Snapshot()
	require.Equal(t, models.FOPStateTimeRunning, snap.State)
	require.True(t, snap.AthleteTimer.Running)

	h.post(events.BreakStarted{BreakType: models.BreakJury, CountdownType: models.CountdownIndefinite})
	h.expect(events.KindBreakStarted)
	snap = h.fop.Snapshot()
	require.Equal(t, models.FOPStateBreak, snap.State)
	require.Equal(t, models.BreakJury, snap.BreakType)
	require.False(t, snap.AthleteTimer.Running)
	require.Nil(t, snap.CurrentAthlete, "no athlete is exposed during a break")
	require.Nil(t, snap.BreakRemainingMillis)

	h.post(events.BreakDone{})
	h.expect(events.KindBreakDone)
	snap = h.fop.Snapshot()
	require.Equal(t, models.FOPStateTimeStopped, snap.State)
	require.Empty(t, snap.BreakType)
	require.Empty(t, snap.CountdownType)
	require.Equal(t, "b2", snap.CurrentAthlete.ID)
	require.Equal(t, order, snap.LiftingOrder)
}

func TestBreakStartedThenDone(t *testing.T) {
	target := t0.Add(30 * time.Minute)
	countdownBreaks := []models.BreakType{
		models.BreakBeforeIntroduction,
		models.BreakFirstSnatch,
		models.BreakFirstCJ,
		models.BreakGroupDone,
	}
	countdowns := []models.CountdownType{
		models.CountdownDuration,
		models.CountdownTarget,
		models.CountdownIndefinite,
	}

	for _, bt := range countdownBreaks {
		for _, ct := range countdowns {
			cmd := events.BreakStarted{BreakType: bt, CountdownType: ct, Millis: 120_000, Target: &target}

			t.Run(string(bt)+"/"+string(ct)+"/lifting", func(t *testing.T) {
				h := newHarness(t, DefaultConfig())
				h.startLifting("M1")
				h.post(cmd)
				h.expect(events.KindBreakStarted)
				h.post(events.BreakDone{})
				done := h.expect(events.KindBreakDone)[0].Data.(events.BreakPayload)
				require.Equal(t, models.FOPStateTimeStopped, done.State)
				require.Equal(t, models.FOPStateTimeStopped, h.fop.Snapshot().State)
			})

			t.Run(string(bt)+"/"+string(ct)+"/no athlete", func(t *testing.T) {
				h := newHarness(t, DefaultConfig())
				h.loadGroup("M1")
				h.post(cmd)
				h.expect(events.KindBreakStarted)
				h.post(events.BreakDone{})
				h.expect(events.KindBreakDone)
				require.Equal(t, models.FOPStateInactive, h.fop.Snapshot().State)
			})
		}
	}
}

func TestBreakStarted_DefaultCountdown(t *testing.T) {
	tests := []struct {
		breakType models.BreakType
		want      models.CountdownType
	}{
		{models.BreakFirstSnatch, models.CountdownDuration},
		{models.BreakFirstCJ, models.CountdownDuration},
		{models.BreakJury, models.CountdownIndefinite},
		{models.BreakTechnical, models.CountdownIndefinite},
	}
	for _, tt := range tests {
		t.Run(string(tt.breakType), func(t *testing.T) {
			h := newHarness(t, DefaultConfig())
			h.post(events.BreakStarted{BreakType: tt.breakType})
			p := h.expect(events.KindBreakStarted)[0].Data.(events.BreakPayload)
			require.Equal(t, tt.want, p.CountdownType)
			require.Equal(t, tt.want, h.fop.Snapshot().CountdownType)
		})
	}
}

func TestBreakStarted_FirstSnatchUsesConfiguredDuration(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.post(events.BreakStarted{BreakType: models.BreakFirstSnatch})
	h.expect(events.KindBreakStarted)

	snap := h.fop.Snapshot()
	require.NotNil(t, snap.BreakRemainingMillis)
	require.Equal(t, (10 * time.Minute).Milliseconds(), *snap.BreakRemainingMillis)
}

func TestBreakStarted_Rejections(t *testing.T) {
	tests := []struct {
		name string
		cmd  events.BreakStarted
		want error
	}{
		{"missing type", events.BreakStarted{}, ErrMissingBreakType},
		{"unknown type", events.BreakStarted{BreakType: "LUNCH"}, ErrInvalidState},
		{"target without instant", events.BreakStarted{BreakType: models.BreakGroupDone, CountdownType: models.CountdownTarget}, ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, DefaultConfig())
			h.post(tt.cmd)
			n := h.expect(events.KindDenied)[0]
			require.Equal(t, console, n.Recipient)
			require.Contains(t, n.Data.(events.DeniedPayload).Reason, tt.want.Error())
			require.Equal(t, models.FOPStateInactive, h.fop.Snapshot().State)
		})
	}
}

func TestTargetBreak_RemainingFollowsWallClock(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	target := t0.Add(30 * time.Minute)
	h.post(events.BreakStarted{BreakType: models.BreakGroupDone, CountdownType: models.CountdownTarget, Target: &target})
	h.expect(events.KindBreakStarted)

	h.clock.Advance(10 * time.Minute)
	snap := h.fop.Snapshot()
	require.NotNil(t, snap.BreakRemainingMillis)
	require.Equal(t, (20 * time.Minute).Milliseconds(), *snap.BreakRemainingMillis)

	h.post(events.BreakPaused{})
	h.expect(events.KindBreakPaused)
	h.clock.Advance(5 * time.Minute)
	require.Equal(t, (15 * time.Minute).Milliseconds(), *h.fop.Snapshot().BreakRemainingMillis)
}

func TestBreakPaused_ResumeKeepsRetainedTime(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.post(events.BreakStarted{BreakType: models.BreakFirstSnatch, Millis: (10 * time.Minute).Milliseconds()})
	h.expect(events.KindBreakStarted)

	h.clock.Advance(2 * time.Minute)
	h.post(events.BreakPaused{})
	paused := h.expect(events.KindBreakPaused)[0].Data.(events.BreakPayload)
	require.True(t, paused.Paused)
	require.Equal(t, (8 * time.Minute).Milliseconds(), *paused.RemainingMillis)

	h.clock.Advance(5 * time.Minute)
	require.Equal(t, (8 * time.Minute).Milliseconds(), *h.fop.Snapshot().BreakRemainingMillis)

	// pausing twice is a no-op
	h.post(events.BreakPaused{})
	h.barrier()

	h.post(events.BreakStarted{BreakType: models.BreakFirstSnatch})
	h.expect(events.KindBreakStarted)
	h.clock.Advance(time.Minute)
	snap := h.fop.Snapshot()
	require.True(t, snap.BreakTimer.Running)
	require.Equal(t, (7 * time.Minute).Milliseconds(), *snap.BreakRemainingMillis)
}

func TestBreakPaused_WithRemainingOverride(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.post(events.BreakStarted{BreakType: models.BreakFirstCJ})
	h.expect(events.KindBreakStarted)

	h.post(events.BreakPaused{RemainingMillis: 90_000})
	p := h.expect(events.KindBreakPaused)[0].Data.(events.BreakPayload)
	require.Equal(t, int64(90_000), *p.RemainingMillis)
	require.False(t, h.fop.Snapshot().BreakTimer.Running)
}

func TestTimeStarted_Debounce(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M1")

	h.post(events.TimeStarted{})
	h.post(events.TimeStarted{})
	h.expect(events.KindTimeStarted)
	h.barrier()

	h.clock.Advance(100 * time.Millisecond)
	h.post(events.TimeStopped{})
	h.post(events.TimeStopped{})
	h.expect(events.KindTimeStopped)
	h.barrier()

	h.post(events.TimeStarted{})
	h.expect(events.KindTimeStarted)
	require.Equal(t, models.FOPStateTimeRunning, h.fop.Snapshot().State)
}

func TestTimeCommands_Guards(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	h.post(events.TimeStarted{})
	require.Contains(t, h.expect(events.KindDenied)[0].Data.(events.DeniedPayload).Reason, ErrInvalidState.Error())

	h.post(events.StartLifting{})
	require.Contains(t, h.expect(events.KindDenied)[0].Data.(events.DeniedPayload).Reason, ErrNoGroup.Error())

	h.startLifting("M1")
	h.post(events.TimeStopped{}) // already stopped
	h.barrier()

	h.post(events.TimeStarted{})
	h.expect(events.KindTimeStarted)
	h.post(events.ForceTime{Millis: 30_000})
	h.expect(events.KindDenied)
}

func TestForceTime(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M1")

	h.post(events.ForceTime{Millis: 30_000})
	p := h.expect(events.KindForceTime)[0].Data.(events.TimePayload)
	require.Equal(t, int64(30_000), p.RemainingMillis)

	h.post(events.BreakStarted{BreakType: models.BreakTechnical})
	h.expect(events.KindBreakStarted)
	h.post(events.ForceTime{Millis: 45_000})
	h.expect(events.KindForceTime)

	snap := h.fop.Snapshot()
	require.Equal(t, models.FOPStateBreak, snap.State)
	require.False(t, snap.AthleteTimer.Running)
	require.Equal(t, int64(45_000), snap.AthleteRemainingMillis)
}

func TestTimeStarted_RejectedWithoutTimeLeft(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M1")
	h.post(events.ForceTime{Millis: 0})
	h.expect(events.KindForceTime)

	h.post(events.TimeStarted{})
	h.expect(events.KindDenied)
	require.Equal(t, models.FOPStateTimeStopped, h.fop.Snapshot().State)
}

func TestCeremonies(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.loadGroup("M1")

	h.post(events.CeremonyStarted{Ceremony: models.CeremonyIntroduction, Group: "M1"})
	h.expect(events.KindBreakStarted, events.KindCeremonyStarted)
	snap := h.fop.Snapshot()
	require.Equal(t, models.FOPStateBreak, snap.State)
	require.Equal(t, models.BreakCeremony, snap.BreakType)
	require.Equal(t, models.CountdownIndefinite, snap.CountdownType)
	require.Equal(t, models.CeremonyIntroduction, snap.Ceremony)

	h.post(events.CeremonyStarted{Ceremony: models.CeremonyIntroduction})
	h.barrier()

	h.post(events.CeremonyStarted{Ceremony: models.CeremonyMedals})
	denied := h.expect(events.KindDenied)[0].Data.(events.DeniedPayload)
	require.Equal(t, events.KindCeremonyStarted, denied.Command)
	require.Contains(t, denied.Reason, ErrCeremonyActive.Error())

	h.post(events.CeremonyDone{Ceremony: models.CeremonyMedals})
	h.barrier()

	h.post(events.CeremonyDone{Ceremony: models.CeremonyIntroduction})
	h.expect(events.KindCeremonyDone)
	snap = h.fop.Snapshot()
	require.Equal(t, models.FOPStateBreak, snap.State)
	require.Empty(t, snap.Ceremony)
}

func TestCeremony_InsideExistingBreakAndClearedByBreakDone(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M1")
	h.post(events.TimeStarted{})
	h.expect(events.KindTimeStarted)

	h.post(events.CeremonyStarted{Ceremony: models.CeremonyOfficialsIntroduction})
	h.expect(events.KindBreakStarted, events.KindCeremonyStarted)
	require.False(t, h.fop.Snapshot().AthleteTimer.Running)

	h.post(events.BreakDone{})
	h.expect(events.KindCeremonyDone, events.KindBreakDone)
	snap := h.fop.Snapshot()
	require.Equal(t, models.FOPStateTimeStopped, snap.State)
	require.Empty(t, snap.Ceremony)
}

func TestSwitchGroup_ResetsEverything(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M1")
	h.post(events.BreakStarted{BreakType: models.BreakJury})
	h.expect(events.KindBreakStarted)

	h.post(events.SwitchGroup{Group: "M8"})
	sw := h.expect(events.KindSwitchGroup, events.KindLiftingOrderUpdated)
	require.Equal(t, "M8", sw[0].Data.(events.GroupPayload).Group)

	snap := h.fop.Snapshot()
	require.Equal(t, models.FOPStateInactive, snap.State)
	require.Empty(t, snap.BreakType)
	require.Nil(t, snap.CurrentAthlete)
	require.Equal(t, "M8", snap.Group)
	require.Len(t, snap.LiftingOrder, 2)

	h.post(events.SwitchGroup{Group: "missing"})
	require.Contains(t, h.expect(events.KindDenied)[0].Data.(events.DeniedPayload).Reason, ErrNoGroup.Error())
	require.Equal(t, "M8", h.fop.Snapshot().Group)
}

func TestDecision_NextAthleteAndConsecutiveClock(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M1")
	require.Equal(t, "a2", h.fop.Snapshot().CurrentAthlete.ID)

	h.post(events.TimeStarted{})
	h.expect(events.KindTimeStarted)
	h.clock.Advance(20 * time.Second)

	h.post(events.Decision{Good: true})
	ns := h.expect(events.KindDecision, events.KindLiftingOrderUpdated)
	d := ns[0].Data.(events.DecisionPayload)
	require.Equal(t, events.DecisionPayload{AthleteID: "a2", Attempt: 1, Weight: 95, Good: true}, d)

	// a2 asks for 96 automatically, still lighter than 100
	snap := h.fop.Snapshot()
	require.Equal(t, models.FOPStateTimeStopped, snap.State)
	require.Equal(t, "a2", snap.CurrentAthlete.ID)
	require.Equal(t, int64(120_000), snap.AthleteRemainingMillis)

	h.post(events.WeightChange{AthleteID: "a2", Weight: 105})
	h.expect(events.KindWeightChange, events.KindLiftingOrderUpdated)
	snap = h.fop.Snapshot()
	require.Equal(t, "a3", snap.CurrentAthlete.ID)
	require.Equal(t, int64(60_000), snap.AthleteRemainingMillis)
}

func TestDecision_LastAttemptEndsGroup(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("LAST")

	h.post(events.Decision{Good: false})
	ns := h.expect(events.KindDecision, events.KindLiftingOrderUpdated, events.KindBreakStarted)
	require.Empty(t, ns[1].Data.(events.LiftingOrderPayload).CurrentAthleteID)

	snap := h.fop.Snapshot()
	require.Equal(t, models.FOPStateBreak, snap.State)
	require.Equal(t, models.BreakGroupDone, snap.BreakType)
	require.Nil(t, snap.CurrentAthlete)

	h.post(events.BreakDone{})
	h.expect(events.KindBreakDone)
	require.Equal(t, models.FOPStateInactive, h.fop.Snapshot().State)
}

func TestWeightChange_Guards(t *testing.T) {
	h := newHarness(t, DefaultConfig())

	h.post(events.WeightChange{AthleteID: "a1", Weight: 100})
	require.Contains(t, h.expect(events.KindDenied)[0].Data.(events.DeniedPayload).Reason, ErrNoGroup.Error())

	h.startLifting("M1")
	h.post(events.WeightChange{AthleteID: "zz", Weight: 100})
	require.Contains(t, h.expect(events.KindDenied)[0].Data.(events.DeniedPayload).Reason, ErrUnknownAthlete.Error())

	h.post(events.Decision{Good: true}) // a2 made 95
	h.expect(events.KindDecision, events.KindLiftingOrderUpdated)
	h.post(events.WeightChange{AthleteID: "a2", Weight: 95})
	require.Contains(t, h.expect(events.KindDenied)[0].Data.(events.DeniedPayload).Reason, ErrWeightTooLow.Error())
}

func TestWeightChange_RunningClockKeepsAthlete(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M1")
	h.post(events.TimeStarted{})
	h.expect(events.KindTimeStarted)

	h.post(events.WeightChange{AthleteID: "a2", Weight: 120})
	upd := h.expect(events.KindWeightChange, events.KindLiftingOrderUpdated)[1].Data.(events.LiftingOrderPayload)
	require.Equal(t, "a2", upd.CurrentAthleteID)
	require.Equal(t, "a3", upd.Order[0].AthleteID)
	require.True(t, h.fop.Snapshot().AthleteTimer.Running)
}

func TestJuryNotification(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.loadGroup("M1")

	h.post(events.JuryNotify{Code: events.CodeCallReferee, AthleteID: "a1"})
	n := h.expect(events.KindJuryNotification)[0]
	require.Equal(t, events.NoticePayload{Code: events.CodeCallReferee, AthleteID: "a1"}, n.Data)

	h.post(events.JuryNotify{Code: events.CodeCallReferee, AthleteID: "nobody"})
	h.expect(events.KindDenied)
}
