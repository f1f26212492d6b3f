package http

import (
	"encoding/json"
	"net/http"

	"event-live-service/internal/app"
	"event-live-service/internal/domain"
)

type controlRequest struct {
	Action     string  `json:"action"`
	QuestionID *string `json:"questionId,omitempty"`
}

type stateResponse struct {
	State           domain.GameState `json:"state"`
	Phase           domain.Phase     `json:"phase"`
	RemainingMs     int64            `json:"remainingMs"`
	CurrentQuestion *questionView    `json:"currentQuestion,omitempty"`
}

// questionView is the viewer-safe question payload: no correct option.
type questionView struct {
	ID              string          `json:"id"`
	Text            string          `json:"text"`
	Options         []domain.Option `json:"options"`
	DisplayDuration domain.Duration `json:"displayDuration"`
}

func viewOf(q *domain.Question) *questionView {
	if q == nil {
		return nil
	}
	return &questionView{
		ID:              q.ID,
		Text:            q.Text,
		Options:         q.Options,
		DisplayDuration: q.DisplayDuration,
	}
}

func (a *API) handleControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorPayload{"error": {Code: "bad-request", Message: "invalid control payload"}})
		return
	}

	var (
		st  domain.GameState
		err error
	)
	switch req.Action {
	case "start":
		if req.QuestionID == nil {
			writeJSON(w, http.StatusBadRequest, map[string]errorPayload{"error": {Code: "bad-request", Message: "start requires questionId"}})
			return
		}
		st, err = a.controller.Start(r.Context(), *req.QuestionID)
	case "advance":
		st, err = a.controller.Advance(r.Context(), req.QuestionID)
	case "pause":
		st, err = a.controller.Pause(r.Context())
	case "resume":
		st, err = a.controller.Resume(r.Context())
	case "stop":
		st, err = a.controller.Stop(r.Context())
	default:
		writeJSON(w, http.StatusBadRequest, map[string]errorPayload{"error": {Code: "bad-request", Message: "unknown action " + req.Action}})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	now := a.clock.Now()
	writeJSON(w, http.StatusOK, stateResponse{
		State:       st,
		Phase:       app.DerivePhase(st, now),
		RemainingMs: app.EffectiveTimeRemaining(st, now).Milliseconds(),
	})
}

func (a *API) handleControlSnapshot(w http.ResponseWriter, r *http.Request) {
	st, q, err := a.controller.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	now := a.clock.Now()
	writeJSON(w, http.StatusOK, stateResponse{
		State:           st,
		Phase:           app.DerivePhase(st, now),
		RemainingMs:     app.EffectiveTimeRemaining(st, now).Milliseconds(),
		CurrentQuestion: viewOf(q),
	})
}
