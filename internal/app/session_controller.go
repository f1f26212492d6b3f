package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"event-live-service/internal/domain"
)

// SessionController is the single writer of the game state row. Every
// transition is one conditional write; a losing writer re-reads and retries
// once, but only when the guarded fields (session id, current question) are
// unchanged — otherwise the race is real and surfaces as ErrConflict.
type SessionController struct {
	states    GameStateRepository
	questions QuestionRepository
	notifier  Notifier
	clock     clockwork.Clock

	defaultDisplay time.Duration
	defaultAnswer  time.Duration
}

// SessionConfig carries wiring knobs; zero values fall back to sane defaults.
type SessionConfig struct {
	Clock           clockwork.Clock
	DisplayDuration time.Duration
	AnswerDuration  time.Duration
}

func NewSessionController(states GameStateRepository, questions QuestionRepository, notifier Notifier, cfg SessionConfig) *SessionController {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.DisplayDuration <= 0 {
		cfg.DisplayDuration = 10 * time.Second
	}
	if cfg.AnswerDuration <= 0 {
		cfg.AnswerDuration = 20 * time.Second
	}
	return &SessionController{
		states:         states,
		questions:      questions,
		notifier:       notifier,
		clock:          cfg.Clock,
		defaultDisplay: cfg.DisplayDuration,
		defaultAnswer:  cfg.AnswerDuration,
	}
}

// Start begins a fresh run: new session id, counters reset, first question
// live immediately. Legal from any state, including mid-run restarts.
func (c *SessionController) Start(ctx context.Context, firstQuestionID string) (domain.GameState, error) {
	q, err := c.questions.GetQuestion(ctx, firstQuestionID)
	if err != nil {
		return domain.GameState{}, err
	}
	total, err := c.questions.CountQuestions(ctx)
	if err != nil {
		return domain.GameState{}, err
	}

	sessionID := uuid.NewString()
	st, err := c.commit(ctx, func(cur domain.GameState) (domain.GameState, error) {
		now := c.clock.Now()
		return domain.GameState{
			SessionID:          sessionID,
			IsActive:           true,
			CurrentQuestionID:  &q.ID,
			QuestionStartTime:  &now,
			DisplayDuration:    c.displayFor(q),
			AnswerDuration:     domain.Duration(c.defaultAnswer),
			CompletedQuestions: 0,
			TotalQuestions:     total,
		}, nil
	})
	if err != nil {
		return domain.GameState{}, err
	}
	log.Info().Str("session_id", st.SessionID).Str("question_id", q.ID).Msg("session started")
	c.publish(ctx, EventStarted, st)
	return st, nil
}

// Advance completes the current question and either shows the next one or,
// when nextQuestionID is nil and all questions are exhausted, ends the run.
// Resetting questionStartTime here is the single moment that invalidates any
// client-side extrapolated deadline.
func (c *SessionController) Advance(ctx context.Context, nextQuestionID *string) (domain.GameState, error) {
	var next *domain.Question
	if nextQuestionID != nil {
		q, err := c.questions.GetQuestion(ctx, *nextQuestionID)
		if err != nil {
			return domain.GameState{}, err
		}
		next = &q
	}

	st, err := c.commit(ctx, func(cur domain.GameState) (domain.GameState, error) {
		if !cur.IsActive || cur.IsPaused || cur.CurrentQuestionID == nil {
			return domain.GameState{}, domain.ErrInvalidTransition
		}
		out := cur
		out.CompletedQuestions++
		if next != nil {
			now := c.clock.Now()
			out.CurrentQuestionID = &next.ID
			out.QuestionStartTime = &now
			out.DisplayDuration = c.displayFor(*next)
		} else {
			out.CurrentQuestionID = nil
			out.QuestionStartTime = nil
		}
		return out, nil
	})
	if err != nil {
		return domain.GameState{}, err
	}

	event := EventAdvanced
	if st.CurrentQuestionID == nil && st.CompletedQuestions >= st.TotalQuestions {
		event = EventCompleted
	}
	log.Info().
		Str("session_id", st.SessionID).
		Int("completed", st.CompletedQuestions).
		Str("event", event).
		Msg("session advanced")
	c.publish(ctx, event, st)
	return st, nil
}

// Pause freezes the countdown without clearing the active question.
func (c *SessionController) Pause(ctx context.Context) (domain.GameState, error) {
	st, err := c.commit(ctx, func(cur domain.GameState) (domain.GameState, error) {
		if !cur.IsActive || cur.IsPaused {
			return domain.GameState{}, domain.ErrInvalidTransition
		}
		out := cur
		now := c.clock.Now()
		out.IsPaused = true
		out.PausedAt = &now
		return out, nil
	})
	if err != nil {
		return domain.GameState{}, err
	}
	c.publish(ctx, EventPaused, st)
	return st, nil
}

// Resume re-baselines questionStartTime by the paused span instead of
// resetting it, so answer time already spent stays spent.
func (c *SessionController) Resume(ctx context.Context) (domain.GameState, error) {
	st, err := c.commit(ctx, func(cur domain.GameState) (domain.GameState, error) {
		if !cur.IsActive || !cur.IsPaused {
			return domain.GameState{}, domain.ErrInvalidTransition
		}
		out := cur
		now := c.clock.Now()
		if out.QuestionStartTime != nil && out.PausedAt != nil {
			shifted := out.QuestionStartTime.Add(now.Sub(*out.PausedAt))
			out.QuestionStartTime = &shifted
		}
		out.IsPaused = false
		out.PausedAt = nil
		return out, nil
	})
	if err != nil {
		return domain.GameState{}, err
	}
	c.publish(ctx, EventResumed, st)
	return st, nil
}

// Stop returns to idle from any state. The last session id is kept so late
// polls still detect the run they belonged to.
func (c *SessionController) Stop(ctx context.Context) (domain.GameState, error) {
	st, err := c.commit(ctx, func(cur domain.GameState) (domain.GameState, error) {
		out := cur
		out.IsActive = false
		out.IsPaused = false
		out.CurrentQuestionID = nil
		out.QuestionStartTime = nil
		out.PausedAt = nil
		return out, nil
	})
	if err != nil {
		return domain.GameState{}, err
	}
	log.Info().Str("session_id", st.SessionID).Msg("session stopped")
	c.publish(ctx, EventStopped, st)
	return st, nil
}

// Snapshot returns the committed state plus the current question payload.
func (c *SessionController) Snapshot(ctx context.Context) (domain.GameState, *domain.Question, error) {
	st, err := c.states.Get(ctx)
	if err != nil {
		return domain.GameState{}, nil, err
	}
	if st.CurrentQuestionID == nil {
		return st, nil, nil
	}
	q, err := c.questions.GetQuestion(ctx, *st.CurrentQuestionID)
	if err != nil {
		return st, nil, nil // state remains authoritative even if content lags
	}
	return st, &q, nil
}

// commit runs a read-build-CAS cycle with a single automatic retry. The retry
// only fires when the re-read state still matches the guarded fields of the
// original read; a changed session id or current question means a concurrent
// admin action won, and the caller gets ErrConflict.
func (c *SessionController) commit(ctx context.Context, build func(cur domain.GameState) (domain.GameState, error)) (domain.GameState, error) {
	cur, err := c.states.Get(ctx)
	if err != nil {
		return domain.GameState{}, err
	}
	next, err := build(cur)
	if err != nil {
		return domain.GameState{}, err
	}
	st, err := c.states.UpdateIf(ctx, cur.Version, next)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, domain.ErrConflict) {
		return domain.GameState{}, err
	}

	fresh, rerr := c.states.Get(ctx)
	if rerr != nil {
		return domain.GameState{}, rerr
	}
	if fresh.SessionID != cur.SessionID || !questionIDsEqual(fresh.CurrentQuestionID, cur.CurrentQuestionID) {
		return domain.GameState{}, domain.ErrConflict
	}
	next, err = build(fresh)
	if err != nil {
		return domain.GameState{}, err
	}
	return c.states.UpdateIf(ctx, fresh.Version, next)
}

// publish runs only after a confirmed commit. A failed publish is logged, not
// surfaced: the poll backstop delivers the state within one interval anyway.
func (c *SessionController) publish(ctx context.Context, event string, st domain.GameState) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Publish(ctx, StateEvent{Type: event, State: st}); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("state change publish failed")
	}
}

func (c *SessionController) displayFor(q domain.Question) domain.Duration {
	if q.DisplayDuration > 0 {
		return q.DisplayDuration
	}
	return domain.Duration(c.defaultDisplay)
}

func questionIDsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
