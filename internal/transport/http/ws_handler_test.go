package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"event-live-service/internal/app"
)

func dialWS(t *testing.T, env *apiEnv) *websocket.Conn {
	t.Helper()
	u := "ws" + env.server.URL[len("http"):] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (string, app.ViewSnapshot) {
	t.Helper()
	var msg struct {
		Type    string           `json:"type"`
		Payload app.ViewSnapshot `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return msg.Type, msg.Payload
}

func TestWebSocketInitialSnapshot(t *testing.T) {
	env := newAPIEnv(t)
	conn := dialWS(t, env)

	typ, snap := readFrame(t, conn)
	if typ != "state" {
		t.Fatalf("expected state frame first, got %s", typ)
	}
	if snap.State.IsActive {
		t.Fatalf("fresh service should be idle, got %+v", snap.State)
	}
}

func TestWebSocketReceivesTransitions(t *testing.T) {
	env := newAPIEnv(t)
	conn := dialWS(t, env)
	readFrame(t, conn)

	resp := env.post(t, "/control", map[string]any{"action": "start", "questionId": "q1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: status %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The push path should deliver the transition without any poll tick.
	typ, snap := readFrame(t, conn)
	if typ != "state" {
		t.Fatalf("expected state frame, got %s", typ)
	}
	if !snap.State.IsActive || snap.State.CurrentQuestionID == nil || *snap.State.CurrentQuestionID != "q1" {
		t.Fatalf("transition not delivered: %+v", snap.State)
	}
	if snap.RemainingMs != (30 * time.Second).Milliseconds() {
		t.Fatalf("expected full countdown at start, got %d", snap.RemainingMs)
	}
}
