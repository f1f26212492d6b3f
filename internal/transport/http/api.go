package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"event-live-service/internal/app"
	"event-live-service/internal/domain"
)

// API wires the game core to HTTP. Admin control actions surface typed errors
// directly; viewer-facing reads and the websocket never expose raw failures.
type API struct {
	controller *app.SessionController
	scoring    *app.ScoringEngine
	lottery    *app.LotteryCoordinator
	reader     app.StateReader
	feed       app.Subscriber

	clock        clockwork.Clock
	pollInterval time.Duration
	upgrader     websocket.Upgrader
}

// APIConfig carries the viewer sync knobs.
type APIConfig struct {
	Clock        clockwork.Clock
	PollInterval time.Duration
}

func NewAPI(controller *app.SessionController, scoring *app.ScoringEngine, lottery *app.LotteryCoordinator, reader app.StateReader, feed app.Subscriber, cfg APIConfig) *API {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &API{
		controller:   controller,
		scoring:      scoring,
		lottery:      lottery,
		reader:       reader,
		feed:         feed,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts all routes on the mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /control", a.handleControl)
	mux.HandleFunc("GET /control", a.handleControlSnapshot)
	mux.HandleFunc("POST /scoring", a.handleScoring)
	mux.HandleFunc("GET /scoring/leaderboard", a.handleLeaderboard)
	mux.HandleFunc("POST /lottery/draw", a.handleDraw)
	mux.HandleFunc("POST /lottery/reset", a.handleLotteryReset)
	mux.HandleFunc("GET /lottery", a.handleLotteryState)
	mux.HandleFunc("GET /lottery/draws", a.handleDrawHistory)
	mux.HandleFunc("/ws", a.ServeWS)
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeJSON(w, status, map[string]errorPayload{"error": {Code: code, Message: err.Error()}})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "invalid-transition"
	case errors.Is(err, domain.ErrDuplicateAnswer):
		return http.StatusConflict, "duplicate-answer"
	case errors.Is(err, domain.ErrAnswerClosed):
		return http.StatusGone, "answer-closed"
	case errors.Is(err, domain.ErrDrawInProgress):
		return http.StatusConflict, "draw-in-progress"
	case errors.Is(err, domain.ErrNoEligibleParticipants):
		return http.StatusUnprocessableEntity, "no-eligible-participants"
	case errors.Is(err, domain.ErrStaleSession):
		return http.StatusConflict, "stale-session"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound, "question-not-found"
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
