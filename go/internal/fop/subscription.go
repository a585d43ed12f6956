package fop

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/barbell/go/internal/fop/events"
)

// Handler receives the notifications of a field of play, in order, on a
// goroutine owned by the subscription.
type Handler func(events.Notification)

// Subscription is the handle returned by Subscribe. Close unregisters it from
// both the notification fan-out and the command channel.
type Subscription struct {
	id      uuid.UUID
	origin  events.Origin
	fop     *FieldOfPlay
	handler Handler
	initial Snapshot

	queue    chan events.Notification
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu  sync.Mutex
	err error
}

func newSubscription(f *FieldOfPlay, origin events.Origin, h Handler) *Subscription {
	if origin == "" {
		origin = events.NewOrigin()
	}
	return &Subscription{
		id:      uuid.New(),
		origin:  origin,
		fop:     f,
		handler: h,
		queue:   make(chan events.Notification, f.cfg.SubscriberBuffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// ID identifies the subscription.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Origin is the correlation token carried by commands posted through s.
func (s *Subscription) Origin() events.Origin { return s.origin }

// Snapshot is the state at the instant the subscription was registered.
// Notifications delivered afterwards all have a greater Seq.
func (s *Subscription) Snapshot() Snapshot { return s.initial }

// Done is closed once the subscription is detached and its handler will not
// be called again.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err reports why the subscription was detached: nil after Close,
// ErrSlowSubscriber after eviction, ErrClosed when the field of play closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Post sends a command on behalf of this subscriber.
func (s *Subscription) Post(ctx context.Context, cmd events.Command) error {
	select {
	case <-s.stop:
		return ErrDetached
	default:
	}
	return s.fop.Post(ctx, s.origin, cmd)
}

// Close detaches the subscription. Closing twice is not an error.
func (s *Subscription) Close() error {
	if s.detach(nil) {
		s.fop.unregister(s.id)
	}
	return nil
}

// detach stops delivery and records why. It reports whether this call did it.
func (s *Subscription) detach(reason error) bool {
	detached := false
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.err = reason
		s.mu.Unlock()
		close(s.stop)
		detached = true
	})
	return detached
}

func (s *Subscription) detached() bool {
	select {
	case <-s.stop:
		return true
	default:
		return false
	}
}

// run delivers queued notifications until the subscription is detached.
func (s *Subscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case n := <-s.queue:
			if s.detached() {
				return
			}
			s.invoke(n)
		}
	}
}

func (s *Subscription) invoke(n events.Notification) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("platform", n.Platform).
				Str("subscription", s.id.String()).
				Str("kind", string(n.Kind)).
				Interface("panic", r).
				Msg("subscriber handler panicked")
		}
	}()
	s.handler(n)
}
