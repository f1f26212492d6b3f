package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"event-live-service/internal/app"
)

const eventChannel = "game:events"

// Notifier bridges committed state changes onto a Redis pub/sub channel so
// every instance's reconcilers see them. Delivery is at-most-once; the poll
// backstop covers gaps, so a lost message is a latency blip, not a bug.
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Publish(ctx context.Context, ev app.StateEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode state event: %w", err)
	}
	return n.client.Publish(ctx, eventChannel, payload).Err()
}

// Subscribe delivers the change feed. The returned cancel closes the
// underlying pub/sub; the event channel then closes on its own.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan app.StateEvent, func(), error) {
	ps := n.client.Subscribe(ctx, eventChannel)
	// Force the subscription onto the wire before we report success.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, nil, err
	}

	out := make(chan app.StateEvent, 8)
	go func() {
		defer close(out)
		for msg := range ps.Channel() {
			var ev app.StateEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Warn().Err(err).Msg("dropping malformed state event")
				continue
			}
			select {
			case out <- ev:
			default:
				// Slow consumer: drop the oldest so the feed never blocks.
				select {
				case <-out:
				default:
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	cancel := func() { _ = ps.Close() }
	return out, cancel, nil
}
