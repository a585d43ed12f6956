package fop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/fop/timer"
	"github.com/mcdev12/barbell/go/internal/models"
)

func TestEchoSuppression(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	_, display := h.subscribe("display")
	h.startLifting("M1")
	expectOn(t, display, events.KindSwitchGroup, events.KindLiftingOrderUpdated, events.KindStartLifting)

	h.post(events.TimeStarted{})
	own := h.expect(events.KindTimeStarted)[0]
	seen := expectOn(t, display, events.KindTimeStarted)[0]
	require.Equal(t, console, own.Origin)
	require.Equal(t, own.ID, seen.ID)
	require.False(t, events.ShouldApply(own, console), "console already applied its own clock start")
	require.True(t, events.ShouldApply(seen, "display"))

	h.post(events.BreakStarted{BreakType: models.BreakJury})
	h.expect(events.KindBreakStarted)
	expectOn(t, display, events.KindBreakStarted)

	// A rejected start still reaches the console so it can reset its buttons.
	h.clock.Advance(time.Second)
	h.post(events.TimeStarted{})
	denied := h.expect(events.KindDenied)[0]
	require.Equal(t, events.KindTimeStarted, denied.Data.(events.DeniedPayload).Command)
	require.Equal(t, console, denied.Origin)
	require.True(t, events.ShouldApply(denied, console))
}

func TestDenied_IsPrivateToOrigin(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	_, display := h.subscribe("display")

	h.post(events.TimeStarted{})
	n := h.expect(events.KindDenied)[0]
	require.Equal(t, console, n.Recipient)
	require.Equal(t, uint64(0), n.Seq, "denials do not consume a sequence number")

	h.barrier()
	broadcast := expectOn(t, display, events.KindNotification)[0]
	require.Equal(t, uint64(1), broadcast.Seq)
}

func TestDenied_SurvivesLateJoinResync(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.loadGroup("M1")

	late, ch := h.subscribe("late")
	snap := late.Snapshot()
	require.Equal(t, uint64(2), snap.Seq)

	require.NoError(t, h.fop.Post(context.Background(), "late", events.TimeStarted{}))
	n := expectOn(t, ch, events.KindDenied)[0]
	require.True(t, n.Private())
	require.Zero(t, n.Seq)
	stale := !n.Private() && n.Seq <= snap.Seq
	require.False(t, stale, "a late joiner keeps its own denial")
	require.True(t, events.ShouldApply(n, "late"))

	h.post(events.Notify{Code: "SYNC"})
	next := expectOn(t, ch, events.KindNotification)[0]
	require.Equal(t, snap.Seq+1, next.Seq)
}

func TestPost_WithoutOriginDropsDenial(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	require.NoError(t, h.fop.Post(context.Background(), "", events.TimeStarted{}))
	h.barrier()
}

func TestSubscribe_LateJoinGetsSnapshot(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M8")
	h.post(events.TimeStarted{})
	last := h.expect(events.KindTimeStarted)[0]
	h.clock.Advance(10 * time.Second)

	late, ch := h.subscribe("late")
	snap := late.Snapshot()
	require.Equal(t, last.Seq, snap.Seq)
	require.Equal(t, models.FOPStateTimeRunning, snap.State)
	require.Equal(t, "b2", snap.CurrentAthlete.ID)
	require.Equal(t, int64(50_000), snap.AthleteRemainingMillis)

	h.post(events.TimeStopped{})
	n := expectOn(t, ch, events.KindTimeStopped)[0]
	require.Greater(t, n.Seq, snap.Seq)
}

func TestNotifications_OrderedUnderConcurrentPosts(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	const posters, each = 8, 25

	var wg sync.WaitGroup
	for i := 0; i < posters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				require.NoError(t, h.fop.Post(context.Background(), console, events.Notify{Code: events.CodeRecordAttempt}))
			}
		}()
	}
	wg.Wait()

	var prev uint64
	for i := 0; i < posters*each; i++ {
		n := recv(t, h.inbox)
		require.Equal(t, prev+1, n.Seq)
		prev = n.Seq
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	sub, _ := h.subscribe("display")
	require.Equal(t, 2, waitSubscribers(t, h.fop, 2))

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	<-sub.Done()
	require.NoError(t, sub.Err())
	require.ErrorIs(t, sub.Post(context.Background(), events.TimeStarted{}), ErrDetached)
	require.Equal(t, 1, waitSubscribers(t, h.fop, 1))
}

func TestSlowSubscriberIsEvicted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SubscriberBuffer = 1
	cfg.DeliveryTimeout = 10 * time.Millisecond
	h := newHarness(t, cfg)

	release := make(chan struct{})
	slow, err := h.fop.Subscribe(context.Background(), "slow", func(events.Notification) { <-release })
	require.NoError(t, err)
	defer close(release)

	for i := 0; i < 4; i++ {
		h.post(events.Notify{Code: events.CodeNewRecord})
	}
	// the console keeps receiving
	h.expect(events.KindNotification, events.KindNotification, events.KindNotification, events.KindNotification)

	require.Eventually(t, func() bool { return slow.Err() != nil }, 2*time.Second, 5*time.Millisecond)
	require.ErrorIs(t, slow.Err(), ErrSlowSubscriber)
	require.Equal(t, 1, waitSubscribers(t, h.fop, 1))
}

func TestHandlerPanicDoesNotStopDelivery(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	got := make(chan events.Notification, 4)
	_, err := h.fop.Subscribe(context.Background(), "fragile", func(n events.Notification) {
		got <- n
		panic("boom")
	})
	require.NoError(t, err)

	h.post(events.Notify{Code: events.CodeNewRecord})
	h.post(events.Notify{Code: events.CodeRecordAttempt})
	expectOn(t, got, events.KindNotification, events.KindNotification)
}

func TestClose(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	require.NoError(t, h.fop.Close())
	require.NoError(t, h.fop.Close())

	<-h.sub.Done()
	require.ErrorIs(t, h.sub.Err(), ErrClosed)
	require.ErrorIs(t, h.fop.Post(context.Background(), console, events.StartLifting{}), ErrClosed)
	_, err := h.fop.Subscribe(context.Background(), "x", func(events.Notification) {})
	require.ErrorIs(t, err, ErrClosed)
	require.NoError(t, h.sub.Close())
}

func TestExpiry_AthleteClockFreezesAtZero(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M1")
	h.post(events.TimeStarted{})
	h.expect(events.KindTimeStarted)

	h.waitForTicker()
	h.clock.Advance(61 * time.Second)
	over := h.expect(events.KindTimeOver)[0]
	require.Equal(t, events.OriginClock, over.Origin)
	require.Equal(t, events.TimePayload{AthleteID: "a2", RemainingMillis: 0}, over.Data)

	snap := h.fop.Snapshot()
	require.Equal(t, models.FOPStateTimeStopped, snap.State)
	require.Equal(t, int64(0), snap.AthleteRemainingMillis)

	h.post(events.TimeStarted{})
	h.expect(events.KindDenied)
}

func TestExpiry_BreakFreezeByDefault(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	h.startLifting("M1")
	h.post(events.BreakStarted{BreakType: models.BreakFirstSnatch, Millis: 60_000})
	h.expect(events.KindBreakStarted)

	h.waitForTicker()
	h.clock.Advance(61 * time.Second)
	h.expect(events.KindBreakTimeOver)
	h.barrier()

	snap := h.fop.Snapshot()
	require.Equal(t, models.FOPStateBreak, snap.State)
	require.Equal(t, int64(0), *snap.BreakRemainingMillis)
}

func TestExpiry_EndCountdownBreaks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Expiry = EndCountdownBreaks
	h := newHarness(t, cfg)
	h.startLifting("M1")
	h.post(events.BreakStarted{BreakType: models.BreakFirstSnatch, Millis: 60_000})
	h.expect(events.KindBreakStarted)

	h.waitForTicker()
	h.clock.Advance(61 * time.Second)
	h.expect(events.KindBreakTimeOver, events.KindBreakDone)
	require.Equal(t, models.FOPStateTimeStopped, h.fop.Snapshot().State)
}

func TestExpiry_IndefiniteBreakNeverExpires(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Expiry = EndCountdownBreaks
	h := newHarness(t, cfg)
	h.post(events.BreakStarted{BreakType: models.BreakJury})
	h.expect(events.KindBreakStarted)

	h.waitForTicker()
	h.clock.Advance(3 * time.Hour)
	h.barrier()
	require.Equal(t, models.FOPStateBreak, h.fop.Snapshot().State)
}

func TestExpiryPolicies(t *testing.T) {
	countdown := Snapshot{State: models.FOPStateBreak, BreakType: models.BreakFirstCJ}
	jury := Snapshot{State: models.FOPStateBreak, BreakType: models.BreakJury}

	require.Equal(t, ExpiryFreeze, FreezeOnExpiry(countdown, timer.KindBreak))
	require.Equal(t, ExpiryEndBreak, EndCountdownBreaks(countdown, timer.KindBreak))
	require.Equal(t, ExpiryFreeze, EndCountdownBreaks(jury, timer.KindBreak))
	require.Equal(t, ExpiryFreeze, EndCountdownBreaks(countdown, timer.KindAthlete))

	p, err := ParseExpiryPolicy("end_break")
	require.NoError(t, err)
	require.Equal(t, ExpiryEndBreak, p(countdown, timer.KindBreak))
	_, err = ParseExpiryPolicy("explode")
	require.Error(t, err)
}

func waitSubscribers(t *testing.T, f *FieldOfPlay, want int) int {
	t.Helper()
	require.Eventually(t, func() bool { return f.Subscribers() == want }, 2*time.Second, 5*time.Millisecond)
	return f.Subscribers()
}
