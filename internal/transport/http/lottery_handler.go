package http

import (
	"net/http"
	"strconv"
	"time"

	"event-live-service/internal/domain"
)

type drawResponse struct {
	DrawID           string             `json:"drawId"`
	Winner           domain.Participant `json:"winner"`
	ParticipantCount int                `json:"participantCount"`
	DrawnAt          time.Time          `json:"drawnAt"`
}

func (a *API) handleDraw(w http.ResponseWriter, r *http.Request) {
	rec, err := a.lottery.Draw(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, drawResponse{
		DrawID:           rec.ID,
		Winner:           rec.Winner,
		ParticipantCount: rec.ParticipantCount,
		DrawnAt:          rec.DrawnAt,
	})
}

func (a *API) handleLotteryReset(w http.ResponseWriter, r *http.Request) {
	st, err := a.lottery.Reset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleLotteryState(w http.ResponseWriter, r *http.Request) {
	st, err := a.lottery.State(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (a *API) handleDrawHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := a.lottery.Draws(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.LotteryDrawRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"draws": records})
}
