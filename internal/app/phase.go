package app

import (
	"time"

	"event-live-service/internal/domain"
)

// Countdown math works exclusively off absolute timestamps: remaining time is
// recomputed from questionStartTime on every evaluation, never decremented.
// A client waking up from a suspended tab gets the correct value instantly.

// AnswerDeadline returns the absolute end of the answer window, or false when
// no question is live.
func AnswerDeadline(st domain.GameState) (time.Time, bool) {
	if st.QuestionStartTime == nil {
		return time.Time{}, false
	}
	return st.QuestionStartTime.Add(st.DisplayDuration.Std() + st.AnswerDuration.Std()), true
}

// EffectiveTimeRemaining is max(0, deadline - now). While paused, the clock is
// frozen at PausedAt so repeated reads return the same value.
func EffectiveTimeRemaining(st domain.GameState, now time.Time) time.Duration {
	deadline, ok := AnswerDeadline(st)
	if !ok {
		return 0
	}
	rem := deadline.Sub(effectiveNow(st, now))
	if rem < 0 {
		return 0
	}
	return rem
}

// DerivePhase maps a committed snapshot to the viewer-facing phase. It is a
// pure function of the snapshot and the clock: two transition paths ending in
// the same state yield the same phase.
func DerivePhase(st domain.GameState, now time.Time) domain.Phase {
	if !st.IsActive {
		return domain.PhaseWaiting
	}
	if st.CurrentQuestionID == nil || st.QuestionStartTime == nil {
		if st.TotalQuestions > 0 && st.CompletedQuestions >= st.TotalQuestions {
			return domain.PhaseRankings
		}
		return domain.PhaseWaiting
	}

	elapsed := effectiveNow(st, now).Sub(*st.QuestionStartTime)
	switch {
	case elapsed < st.DisplayDuration.Std():
		return domain.PhaseQuestion
	case elapsed < st.DisplayDuration.Std()+st.AnswerDuration.Std():
		return domain.PhaseAnswering
	default:
		return domain.PhaseRankings
	}
}

func effectiveNow(st domain.GameState, now time.Time) time.Time {
	if st.IsPaused && st.PausedAt != nil {
		return *st.PausedAt
	}
	return now
}
