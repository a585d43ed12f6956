// Package fop implements the field-of-play session engine: one serialized
// command loop per competition platform that owns the platform state, runs
// the athlete and break clocks and fans notifications out to subscribers.
package fop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/fop/timer"
	"github.com/mcdev12/barbell/go/internal/metrics"
)

// clocks indexes the per-clock expiry flags.
var clocks = [...]timer.Kind{timer.KindAthlete, timer.KindBreak}

type message interface{ isMessage() }

type commandMsg struct {
	origin events.Origin
	cmd    events.Command
}

type subscribeMsg struct {
	sub   *Subscription
	reply chan struct{}
}

type unsubscribeMsg struct{ id uuid.UUID }

type expiredMsg struct{ clock int }

func (commandMsg) isMessage()     {}
func (subscribeMsg) isMessage()   {}
func (unsubscribeMsg) isMessage() {}
func (expiredMsg) isMessage()     {}

// Option configures a FieldOfPlay.
type Option func(*options)

type options struct {
	clock  clockwork.Clock
	groups GroupSource
}

// WithClock replaces the wall clock, typically with a fake in tests.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithGroupSource sets where SwitchGroup loads athletes from.
func WithGroupSource(g GroupSource) Option {
	return func(o *options) { o.groups = g }
}

// FieldOfPlay is the single source of truth for one platform. Commands are
// applied one at a time in arrival order by a single goroutine; everything
// else reads published snapshots or receives notifications.
type FieldOfPlay struct {
	name  string
	cfg   Config
	clock clockwork.Clock

	inbox  chan message
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup

	view        atomic.Pointer[Snapshot]
	pending     [len(clocks)]atomic.Bool
	subscribers atomic.Int64

	// owned by loop
	sess *session
	subs map[uuid.UUID]*Subscription
	seq  uint64
}

// New starts the command loop and the tick task of a platform.
func New(name string, cfg Config, opts ...Option) *FieldOfPlay {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	f := &FieldOfPlay{
		name:   name,
		cfg:    cfg,
		clock:  o.clock,
		inbox:  make(chan message, cfg.InboxSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		sess:   newSession(cfg, o.clock, o.groups),
		subs:   make(map[uuid.UUID]*Subscription),
	}
	f.publish()

	f.wg.Add(1)
	go f.tick()
	go f.loop()

	log.Info().Str("platform", name).Msg("field of play started")
	return f
}

// Name is the platform name.
func (f *FieldOfPlay) Name() string { return f.name }

// Subscribers is the number of attached subscriptions.
func (f *FieldOfPlay) Subscribers() int { return int(f.subscribers.Load()) }

// Post enqueues a command. It returns once the command is queued, not applied;
// the outcome is observed through notifications.
func (f *FieldOfPlay) Post(ctx context.Context, origin events.Origin, cmd events.Command) error {
	if cmd == nil {
		return fmt.Errorf("%w: nil command", ErrInvalidState)
	}
	if f.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case f.inbox <- commandMsg{origin: origin, cmd: cmd}:
		return nil
	case <-f.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe registers h for every notification broadcast from now on. The
// returned subscription carries the snapshot taken atomically with the
// registration. An empty origin gets a generated one.
func (f *FieldOfPlay) Subscribe(ctx context.Context, origin events.Origin, h Handler) (*Subscription, error) {
	if h == nil {
		return nil, errors.New("nil handler")
	}
	if f.ctx.Err() != nil {
		return nil, ErrClosed
	}
	sub := newSubscription(f, origin, h)
	reply := make(chan struct{})
	select {
	case f.inbox <- subscribeMsg{sub: sub, reply: reply}:
	case <-f.ctx.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case <-reply:
		return sub, nil
	case <-f.done:
		return nil, ErrClosed
	}
}

// Snapshot returns the current state with live clock values.
func (f *FieldOfPlay) Snapshot() Snapshot {
	return f.view.Load().render(f.clock.Now())
}

// Close stops the loop and the tick task and detaches every subscriber with
// ErrClosed. It must not be called from a subscription handler.
func (f *FieldOfPlay) Close() error {
	f.cancel()
	<-f.done
	f.wg.Wait()
	return nil
}

func (f *FieldOfPlay) unregister(id uuid.UUID) {
	select {
	case f.inbox <- unsubscribeMsg{id: id}:
	case <-f.ctx.Done():
	}
}

func (f *FieldOfPlay) loop() {
	defer close(f.done)
	defer f.shutdown()

	for {
		select {
		case <-f.ctx.Done():
			return
		case m := <-f.inbox:
			out := f.handle(m)
			f.publish()
			f.fanout(out)
		}
	}
}

func (f *FieldOfPlay) handle(m message) []events.Notification {
	switch msg := m.(type) {
	case commandMsg:
		return f.handleCommand(msg)

	case subscribeMsg:
		snap := f.sess.snapshot(f.name, f.seq).render(f.clock.Now())
		msg.sub.initial = snap
		f.subs[msg.sub.id] = msg.sub
		f.wg.Add(1)
		go func() {
			defer f.wg.Done()
			msg.sub.run()
		}()
		f.subscribersChanged()
		close(msg.reply)
		log.Info().
			Str("platform", f.name).
			Str("subscription", msg.sub.id.String()).
			Str("origin", string(msg.sub.origin)).
			Msg("subscriber attached")

	case unsubscribeMsg:
		if _, ok := f.subs[msg.id]; ok {
			delete(f.subs, msg.id)
			f.subscribersChanged()
			log.Info().Str("platform", f.name).Str("subscription", msg.id.String()).Msg("subscriber detached")
		}

	case expiredMsg:
		f.pending[msg.clock].Store(false)
		kind := clocks[msg.clock]
		if !f.sess.expired(kind) {
			return nil
		}
		action := f.cfg.Expiry(f.sess.snapshot(f.name, f.seq).render(f.clock.Now()), kind)
		metrics.IncExpiry(f.name, string(kind))
		log.Info().Str("platform", f.name).Str("timer", string(kind)).Msg("clock expired")
		return f.stamp(events.OriginClock, f.sess.expire(kind, action))
	}
	return nil
}

func (f *FieldOfPlay) handleCommand(msg commandMsg) []events.Notification {
	kind := msg.cmd.Kind()
	out, err := f.sess.apply(f.ctx, msg.cmd)
	if err != nil {
		switch {
		case errors.Is(err, errDebounced):
			metrics.IncCommand(f.name, string(kind), metrics.OutcomeDebounced)
			log.Debug().Str("platform", f.name).Str("kind", string(kind)).Msg("command debounced")
			return nil
		case errors.Is(err, errIgnored):
			metrics.IncCommand(f.name, string(kind), metrics.OutcomeIgnored)
			log.Debug().Str("platform", f.name).Str("kind", string(kind)).Msg("command already applied")
			return nil
		}
		metrics.IncCommand(f.name, string(kind), metrics.OutcomeDenied)
		log.Warn().
			Err(err).
			Str("platform", f.name).
			Str("kind", string(kind)).
			Str("origin", string(msg.origin)).
			Str("state", string(f.sess.state)).
			Msg("command rejected")
		if msg.origin == "" {
			return nil
		}
		return []events.Notification{f.denied(msg.origin, kind, err)}
	}

	metrics.IncCommand(f.name, string(kind), metrics.OutcomeAccepted)
	log.Debug().
		Str("platform", f.name).
		Str("kind", string(kind)).
		Str("origin", string(msg.origin)).
		Str("state", string(f.sess.state)).
		Msg("command applied")
	return f.stamp(msg.origin, out)
}

// stamp turns emissions into broadcast notifications with consecutive Seq.
func (f *FieldOfPlay) stamp(origin events.Origin, ems []emission) []events.Notification {
	if len(ems) == 0 {
		return nil
	}
	now := f.clock.Now()
	out := make([]events.Notification, 0, len(ems))
	for _, em := range ems {
		f.seq++
		out = append(out, events.Notification{
			ID:        uuid.New(),
			Seq:       f.seq,
			Platform:  f.name,
			Kind:      em.kind,
			Origin:    origin,
			Timestamp: now,
			Data:      em.data,
		})
	}
	return out
}

// denied builds the private notice sent back to a rejected command's origin.
// Private notices carry Seq 0 and sit outside the broadcast sequence.
func (f *FieldOfPlay) denied(origin events.Origin, kind events.Kind, err error) events.Notification {
	return events.Notification{
		ID:        uuid.New(),
		Platform:  f.name,
		Kind:      events.KindDenied,
		Origin:    origin,
		Recipient: origin,
		Timestamp: f.clock.Now(),
		Data:      events.DeniedPayload{Command: kind, Reason: err.Error()},
	}
}

func (f *FieldOfPlay) publish() {
	snap := f.sess.snapshot(f.name, f.seq)
	f.view.Store(&snap)
}

func (f *FieldOfPlay) fanout(ns []events.Notification) {
	for _, n := range ns {
		if !n.Private() {
			metrics.IncNotification(f.name, string(n.Kind))
		}
		for id, sub := range f.subs {
			if n.Private() && sub.origin != n.Recipient {
				continue
			}
			if sub.detached() {
				delete(f.subs, id)
				f.subscribersChanged()
				continue
			}
			if !f.deliver(sub, n) {
				f.evict(id, sub)
			}
		}
	}
}

// deliver queues n for sub, blocking at most DeliveryTimeout when the queue
// is full.
func (f *FieldOfPlay) deliver(sub *Subscription, n events.Notification) bool {
	select {
	case sub.queue <- n:
		return true
	default:
	}
	t := time.NewTimer(f.cfg.DeliveryTimeout)
	defer t.Stop()
	select {
	case sub.queue <- n:
		return true
	case <-sub.stop:
		return true
	case <-t.C:
		return false
	}
}

func (f *FieldOfPlay) evict(id uuid.UUID, sub *Subscription) {
	sub.detach(ErrSlowSubscriber)
	delete(f.subs, id)
	f.subscribersChanged()
	metrics.IncEviction(f.name)
	log.Warn().
		Str("platform", f.name).
		Str("subscription", id.String()).
		Str("origin", string(sub.origin)).
		Msg("slow subscriber evicted")
}

func (f *FieldOfPlay) subscribersChanged() {
	f.subscribers.Store(int64(len(f.subs)))
	metrics.SetSubscribers(f.name, len(f.subs))
}

func (f *FieldOfPlay) shutdown() {
	for id, sub := range f.subs {
		sub.detach(ErrClosed)
		delete(f.subs, id)
	}
	f.subscribersChanged()
	log.Info().Str("platform", f.name).Msg("field of play stopped")
}

// tick polls the published clocks and posts an expiry message when one
// reaches zero. It never touches the session.
func (f *FieldOfPlay) tick() {
	defer f.wg.Done()
	ticker := f.clock.NewTicker(f.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return
		case <-ticker.Chan():
			f.checkExpiry()
		}
	}
}

func (f *FieldOfPlay) checkExpiry() {
	snap := f.view.Load()
	now := f.clock.Now()
	for i, kind := range clocks {
		if !snap.Timer(kind).Expired(now) || !f.pending[i].CompareAndSwap(false, true) {
			continue
		}
		select {
		case f.inbox <- expiredMsg{clock: i}:
		case <-f.ctx.Done():
			return
		}
	}
}
