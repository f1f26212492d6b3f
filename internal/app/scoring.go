package app

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"event-live-service/internal/domain"
)

// ScoringEngine is the single writer of answer records. The score itself is a
// pure function (see Score); the engine adds deadline enforcement and the
// append-only write whose uniqueness constraint rejects duplicates.
type ScoringEngine struct {
	answers   AnswerRepository
	questions QuestionRepository
	rules     RulesRepository
	states    StateReader
	clock     clockwork.Clock
	intn      func(n int) int
}

// ScoringConfig lets tests pin the clock and the bonus randomness.
type ScoringConfig struct {
	Clock clockwork.Clock
	Intn  func(n int) int
}

func NewScoringEngine(answers AnswerRepository, questions QuestionRepository, rules RulesRepository, states StateReader, cfg ScoringConfig) *ScoringEngine {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Intn == nil {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		cfg.Intn = rnd.Intn
	}
	return &ScoringEngine{
		answers:   answers,
		questions: questions,
		rules:     rules,
		states:    states,
		clock:     cfg.Clock,
		intn:      cfg.Intn,
	}
}

// Submit scores one submission and appends the record. The answer window is
// re-derived server-side from the committed state; a client-reported "time's
// up" is never trusted. Timeout submissions (nil option) are always
// recordable so that a user's non-answer still becomes a fact.
func (e *ScoringEngine) Submit(ctx context.Context, sub domain.AnswerSubmission) (domain.ScoreResult, error) {
	q, err := e.questions.GetQuestion(ctx, sub.QuestionID)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	st, err := e.states.Get(ctx)
	if err != nil {
		return domain.ScoreResult{}, err
	}
	now := e.clock.Now()

	if sub.SelectedOption != nil {
		if st.CurrentQuestionID == nil || *st.CurrentQuestionID != sub.QuestionID {
			return domain.ScoreResult{}, domain.ErrAnswerClosed
		}
		if deadline, ok := AnswerDeadline(st); ok && !st.IsPaused && now.After(deadline) {
			return domain.ScoreResult{}, domain.ErrAnswerClosed
		}
	}

	rules, err := e.currentRules(ctx)
	if err != nil {
		return domain.ScoreResult{}, err
	}

	res := Score(q, sub.SelectedOption, rules, e.intn)
	res.UserID = sub.UserID

	rec := domain.AnswerRecord{
		UserID:         sub.UserID,
		QuestionID:     sub.QuestionID,
		SessionID:      st.SessionID,
		SelectedOption: sub.SelectedOption,
		ElapsedMs:      sub.ElapsedMs,
		Correct:        res.Correct,
		Awarded:        res.Awarded,
		CreatedAt:      now,
	}
	if err := e.answers.Insert(ctx, rec); err != nil {
		return domain.ScoreResult{}, err
	}
	log.Debug().
		Str("user_id", sub.UserID).
		Str("question_id", sub.QuestionID).
		Int("awarded", res.Awarded).
		Bool("correct", res.Correct).
		Msg("answer scored")
	return res, nil
}

// Leaderboard returns aggregate totals, highest first.
func (e *ScoringEngine) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return e.answers.Leaderboard(ctx, limit)
}

func (e *ScoringEngine) currentRules(ctx context.Context) (domain.ScoringRules, error) {
	rules, err := e.rules.GetRules(ctx)
	if errors.Is(err, domain.ErrRulesNotFound) {
		return domain.DefaultScoringRules(), nil
	}
	if err != nil {
		return domain.ScoringRules{}, err
	}
	return rules, nil
}

// Score computes the award for one submission. Pure except for intn, which is
// injected so tests can pin the bonus.
//
// Tiers: timeout scores TimeoutScore, an incorrect attempt scores the flat
// ParticipationScore (attempting is never worse than staying silent), and a
// correct answer scores the base plus a uniform bonus in
// [RandomBonusMin, RandomBonusMax], capped per-question by MaxBonus.
func Score(q domain.Question, selected *string, rules domain.ScoringRules, intn func(n int) int) domain.ScoreResult {
	res := domain.ScoreResult{QuestionID: q.ID}
	switch {
	case selected == nil:
		res.TimedOut = true
		res.Awarded = rules.TimeoutScore
	case *selected == q.CorrectOption:
		res.Correct = true
		base := rules.BaseScore
		if q.Points > 0 {
			base = q.Points
		}
		res.Awarded = base + bonusFor(q, rules, intn)
	default:
		res.Awarded = rules.ParticipationScore
	}
	return res
}

func bonusFor(q domain.Question, rules domain.ScoringRules, intn func(n int) int) int {
	if !q.BonusEligible {
		return 0
	}
	lo, hi := rules.RandomBonusMin, rules.RandomBonusMax
	if q.MaxBonus > 0 && q.MaxBonus < hi {
		hi = q.MaxBonus
	}
	if hi < lo {
		return 0
	}
	return lo + intn(hi-lo+1)
}
