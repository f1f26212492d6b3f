package http

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"event-live-service/internal/app"
)

type outboundMessage struct {
	Type    string           `json:"type"`
	Payload app.ViewSnapshot `json:"payload"`
}

// ServeWS upgrades a viewer connection and drives one reconciler for its
// lifetime. The reconciler merges push events with the poll backstop; this
// handler only moves snapshots onto the wire. Closing the socket cancels the
// context, which stops the reconciler and its ticker.
func (a *API) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := make(chan outboundMessage, 16)
	emit := func(snap app.ViewSnapshot) {
		msg := outboundMessage{Type: "state", Payload: snap}
		if snap.Resync {
			msg.Type = "resync"
		}
		select {
		case send <- msg:
		default:
			// Slow socket: drop the oldest frame, the newest snapshot wins.
			select {
			case <-send:
			default:
			}
			select {
			case send <- msg:
			default:
			}
		}
	}

	reconciler := app.NewReconciler(a.reader, a.feed, emit, app.ReconcilerConfig{
		Clock:        a.clock,
		PollInterval: a.pollInterval,
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-send:
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	// Viewers send nothing meaningful; the read loop exists to notice the
	// close and cancel everything.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	if err := reconciler.Run(ctx); err != nil {
		log.Debug().Err(err).Msg("reconciler stopped")
	}
	<-writerDone
}
