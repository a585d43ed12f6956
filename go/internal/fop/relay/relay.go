// Package relay mirrors the notification stream of every field of play to a
// message bus so that displays outside this process can follow along.
package relay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/barbell/go/internal/fop"
	"github.com/mcdev12/barbell/go/internal/fop/events"
	"github.com/mcdev12/barbell/go/internal/metrics"
)

// Origin is the correlation token of relay subscriptions.
const Origin events.Origin = "relay"

// Relay subscribes to each platform and publishes what it receives.
type Relay struct {
	pub     Publisher
	timeout time.Duration

	mu     sync.Mutex
	subs   map[string]*fop.Subscription
	closed bool
	wg     sync.WaitGroup
}

// New creates a relay writing to pub. Each publish is bounded by timeout.
func New(pub Publisher, timeout time.Duration) *Relay {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Relay{
		pub:     pub,
		timeout: timeout,
		subs:    make(map[string]*fop.Subscription),
	}
}

// Attach follows every current and future platform of reg.
func (r *Relay) Attach(reg *fop.Registry) {
	reg.OnCreate(r.follow)
}

func (r *Relay) follow(f *fop.FieldOfPlay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if _, ok := r.subs[f.Name()]; ok {
		return
	}

	sub, err := f.Subscribe(context.Background(), Origin, func(n events.Notification) {
		r.forward(n)
	})
	if err != nil {
		log.Error().Err(err).Str("platform", f.Name()).Msg("relay failed to subscribe")
		return
	}
	r.subs[f.Name()] = sub
	log.Info().Str("platform", f.Name()).Msg("relay attached")

	r.wg.Add(1)
	go r.watch(f, sub)
}

// watch re-subscribes after an eviction. Deltas missed in between are not
// replayed; consumers resync from the REST snapshot.
func (r *Relay) watch(f *fop.FieldOfPlay, sub *fop.Subscription) {
	defer r.wg.Done()
	<-sub.Done()

	r.mu.Lock()
	if r.subs[f.Name()] == sub {
		delete(r.subs, f.Name())
	}
	r.mu.Unlock()

	if errors.Is(sub.Err(), fop.ErrSlowSubscriber) {
		log.Warn().Str("platform", f.Name()).Msg("relay fell behind, re-subscribing")
		r.follow(f)
	}
}

func (r *Relay) forward(n events.Notification) {
	ev, err := NewEvent(n)
	if err != nil {
		metrics.IncRelayPublished(n.Platform, false)
		log.Error().Err(err).Str("platform", n.Platform).Msg("relay failed to encode notification")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.pub.Publish(ctx, ev); err != nil {
		metrics.IncRelayPublished(n.Platform, false)
		log.Error().
			Err(err).
			Str("platform", n.Platform).
			Str("kind", string(n.Kind)).
			Uint64("seq", n.Seq).
			Msg("relay failed to publish")
		return
	}
	metrics.IncRelayPublished(n.Platform, true)
}

// Close detaches from every platform and closes the publisher.
func (r *Relay) Close() error {
	r.mu.Lock()
	r.closed = true
	subs := r.subs
	r.subs = make(map[string]*fop.Subscription)
	r.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	r.wg.Wait()
	return r.pub.Close()
}
