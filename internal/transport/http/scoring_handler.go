package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"event-live-service/internal/domain"
)

func (a *API) handleScoring(w http.ResponseWriter, r *http.Request) {
	var sub domain.AnswerSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]errorPayload{"error": {Code: "bad-request", Message: "invalid submission payload"}})
		return
	}
	if sub.UserID == "" || sub.QuestionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]errorPayload{"error": {Code: "bad-request", Message: "userId and questionId are required"}})
		return
	}

	res, err := a.scoring.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := a.scoring.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
