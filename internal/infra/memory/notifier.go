package memory

import (
	"context"
	"sync"

	"event-live-service/internal/app"
)

// Notifier is an in-process change feed implementing both app.Notifier and
// app.Subscriber. Slow subscribers lose their oldest buffered event rather
// than blocking the publisher; the poll backstop covers anything dropped.
type Notifier struct {
	mu   sync.Mutex
	subs map[chan app.StateEvent]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[chan app.StateEvent]struct{})}
}

func (n *Notifier) Publish(_ context.Context, ev app.StateEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.subs {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
	return nil
}

func (n *Notifier) Subscribe(_ context.Context) (<-chan app.StateEvent, func(), error) {
	ch := make(chan app.StateEvent, 8)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if _, ok := n.subs[ch]; ok {
			delete(n.subs, ch)
			close(ch)
		}
		n.mu.Unlock()
	}
	return ch, cancel, nil
}
