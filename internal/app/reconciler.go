package app

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"event-live-service/internal/domain"
)

// ViewSnapshot is what one viewer renders: the committed state plus the
// derived phase and countdown at emit time.
type ViewSnapshot struct {
	State       domain.GameState `json:"state"`
	Phase       domain.Phase     `json:"phase"`
	RemainingMs int64            `json:"remainingMs"`
	Resync      bool             `json:"resync,omitempty"`
}

// Reconcile merges an incoming server snapshot into the locally-held state.
// A different session id means this is a different run: local state is
// discarded wholesale and the incoming snapshot becomes ground truth (the
// second return is true). Within a session, an older version is ignored so an
// out-of-order push cannot roll the view backwards. Pure, so it is testable
// without timers or sockets.
func Reconcile(local *domain.GameState, incoming domain.GameState) (domain.GameState, bool) {
	if local == nil {
		return incoming, false
	}
	if local.SessionID != incoming.SessionID {
		return incoming, true
	}
	if incoming.Version < local.Version {
		return *local, false
	}
	return incoming, false
}

// Reconciler keeps one viewer in sync. Push events are the latency
// optimization, applied the moment they arrive; the fixed-interval poll is
// the correctness backstop that heals a silently dead push channel within one
// interval. Countdown values are always recomputed from absolute timestamps.
type Reconciler struct {
	reader       StateReader
	feed         Subscriber
	clock        clockwork.Clock
	pollInterval time.Duration
	emit         func(ViewSnapshot)

	local *domain.GameState
}

// ReconcilerConfig carries the optional clock and poll interval.
type ReconcilerConfig struct {
	Clock        clockwork.Clock
	PollInterval time.Duration
}

func NewReconciler(reader StateReader, feed Subscriber, emit func(ViewSnapshot), cfg ReconcilerConfig) *Reconciler {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Reconciler{
		reader:       reader,
		feed:         feed,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
		emit:         emit,
	}
}

// Run blocks until ctx is done. Abandoning a viewer is just cancellation:
// there is no server-side state to tear down and the ticker does not leak.
// Poll failures are swallowed; the next interval retries.
func (r *Reconciler) Run(ctx context.Context) error {
	var push <-chan StateEvent
	if r.feed != nil {
		events, cancel, err := r.feed.Subscribe(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("push subscribe failed, continuing on poll only")
		} else {
			push = events
			defer cancel()
		}
	}

	// Initial fetch so the viewer renders without waiting a full interval.
	if st, err := r.reader.Get(ctx); err == nil {
		r.apply(st, true)
	}

	ticker := r.clock.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-push:
			if !ok {
				// Feed closed underneath us; the poll keeps the viewer live.
				push = nil
				continue
			}
			r.apply(ev.State, false)
		case <-ticker.Chan():
			st, err := r.reader.Get(ctx)
			if err != nil {
				log.Debug().Err(err).Msg("state poll failed")
				continue
			}
			r.apply(st, true)
		}
	}
}

func (r *Reconciler) apply(incoming domain.GameState, fromPoll bool) {
	adopted, resync := Reconcile(r.local, incoming)
	changed := r.local == nil || resync || adopted.Version != r.local.Version
	r.local = &adopted
	if !changed && !fromPoll {
		return
	}
	now := r.clock.Now()
	r.emit(ViewSnapshot{
		State:       adopted,
		Phase:       DerivePhase(adopted, now),
		RemainingMs: EffectiveTimeRemaining(adopted, now).Milliseconds(),
		Resync:      resync,
	})
}
