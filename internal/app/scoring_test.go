package app_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"event-live-service/internal/app"
	"event-live-service/internal/domain"
	"event-live-service/internal/infra/memory"
)

func minIntn(int) int   { return 0 }
func maxIntn(n int) int { return n - 1 }

func bonusQuestion() domain.Question {
	return testQuestions()["q1"]
}

func TestScoreTimeout(t *testing.T) {
	res := app.Score(bonusQuestion(), nil, domain.DefaultScoringRules(), minIntn)
	if !res.TimedOut || res.Correct {
		t.Fatalf("expected timeout result, got %+v", res)
	}
	if res.Awarded != 0 {
		t.Fatalf("timeout must award the timeout score, got %d", res.Awarded)
	}
}

func TestScoreIncorrectAwardsParticipation(t *testing.T) {
	res := app.Score(bonusQuestion(), strPtr("A"), domain.DefaultScoringRules(), minIntn)
	if res.Correct || res.TimedOut {
		t.Fatalf("expected incorrect result, got %+v", res)
	}
	if res.Awarded != 50 {
		t.Fatalf("incorrect answer must award flat participation score, got %d", res.Awarded)
	}
}

func TestScoreCorrectBonusBoundaries(t *testing.T) {
	rules := domain.DefaultScoringRules()

	low := app.Score(bonusQuestion(), strPtr("B"), rules, minIntn)
	if !low.Correct || low.Awarded != rules.BaseScore+rules.RandomBonusMin {
		t.Fatalf("expected lower bound %d, got %+v", rules.BaseScore+rules.RandomBonusMin, low)
	}

	high := app.Score(bonusQuestion(), strPtr("B"), rules, maxIntn)
	if high.Awarded != rules.BaseScore+rules.RandomBonusMax {
		t.Fatalf("expected upper bound %d, got %+v", rules.BaseScore+rules.RandomBonusMax, high)
	}
}

func TestScoreCorrectWithinBounds(t *testing.T) {
	rules := domain.ScoringRules{BaseScore: 50, RandomBonusMin: 1, RandomBonusMax: 50, ParticipationScore: 50, TimeoutScore: 0}
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		res := app.Score(bonusQuestion(), strPtr("B"), rules, rnd.Intn)
		if res.Awarded < 51 || res.Awarded > 100 {
			t.Fatalf("correct score %d outside [51,100]", res.Awarded)
		}
	}
}

func TestScoreProductionScenario(t *testing.T) {
	rules := domain.ScoringRules{BaseScore: 50, RandomBonusMin: 1, RandomBonusMax: 50, ParticipationScore: 50, TimeoutScore: 0}

	if res := app.Score(bonusQuestion(), strPtr("A"), rules, minIntn); res.Awarded != 50 {
		t.Fatalf("incorrect must award exactly 50, got %d", res.Awarded)
	}
	if res := app.Score(bonusQuestion(), nil, rules, minIntn); res.Awarded != 0 {
		t.Fatalf("timeout must award exactly 0, got %d", res.Awarded)
	}
	rnd := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		if res := app.Score(bonusQuestion(), strPtr("B"), rules, rnd.Intn); res.Awarded < 51 || res.Awarded > 100 {
			t.Fatalf("correct score %d outside [51,100]", res.Awarded)
		}
	}
}

func TestScoreBonusGating(t *testing.T) {
	rules := domain.DefaultScoringRules()

	q := bonusQuestion()
	q.BonusEligible = false
	if res := app.Score(q, strPtr("B"), rules, maxIntn); res.Awarded != rules.BaseScore {
		t.Fatalf("bonus-ineligible question must award base only, got %d", res.Awarded)
	}

	q = bonusQuestion()
	q.MaxBonus = 5
	if res := app.Score(q, strPtr("B"), rules, maxIntn); res.Awarded != rules.BaseScore+5 {
		t.Fatalf("per-question cap ignored, got %d", res.Awarded)
	}

	q = bonusQuestion()
	q.Points = 80
	if res := app.Score(q, strPtr("B"), rules, minIntn); res.Awarded != 80+rules.RandomBonusMin {
		t.Fatalf("question base points ignored, got %d", res.Awarded)
	}
}

type scoringEnv struct {
	clock   *clockwork.FakeClock
	answers *memory.AnswerStore
	states  *memory.GameStateStore
	rules   *memory.RulesStore
	engine  *app.ScoringEngine
}

func newScoringEnv(t *testing.T) *scoringEnv {
	t.Helper()
	clock := clockwork.NewFakeClock()
	answers := memory.NewAnswerStore()
	states := memory.NewGameStateStore()
	rules := memory.NewRulesStore()
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(testQuestions()), time.Minute)
	engine := app.NewScoringEngine(answers, questions, rules, states, app.ScoringConfig{
		Clock: clock,
		Intn:  minIntn,
	})

	// Put q1 live with a 10s+20s window.
	now := clock.Now()
	qid := "q1"
	_, err := states.UpdateIf(context.Background(), 0, domain.GameState{
		SessionID:         "s1",
		IsActive:          true,
		CurrentQuestionID: &qid,
		QuestionStartTime: &now,
		DisplayDuration:   domain.Duration(10 * time.Second),
		AnswerDuration:    domain.Duration(20 * time.Second),
		TotalQuestions:    3,
	})
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}
	return &scoringEnv{clock: clock, answers: answers, states: states, rules: rules, engine: engine}
}

func TestSubmitScoresAndRecords(t *testing.T) {
	ctx := context.Background()
	env := newScoringEnv(t)

	res, err := env.engine.Submit(ctx, domain.AnswerSubmission{
		UserID: "u1", QuestionID: "q1", SelectedOption: strPtr("B"), ElapsedMs: 1200,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Correct || res.Awarded != 51 {
		t.Fatalf("expected pinned correct score 51, got %+v", res)
	}
	if env.answers.Count() != 1 {
		t.Fatalf("expected one record, got %d", env.answers.Count())
	}
}

func TestSubmitRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	env := newScoringEnv(t)
	sub := domain.AnswerSubmission{UserID: "u1", QuestionID: "q1", SelectedOption: strPtr("A")}

	if _, err := env.engine.Submit(ctx, sub); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := env.engine.Submit(ctx, sub); !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected duplicate answer, got %v", err)
	}
	if env.answers.Count() != 1 {
		t.Fatalf("duplicate must not add a record, got %d", env.answers.Count())
	}
}

func TestSubmitConcurrentDuplicatesExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	env := newScoringEnv(t)
	sub := domain.AnswerSubmission{UserID: "u1", QuestionID: "q1", SelectedOption: strPtr("B")}

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engine.Submit(ctx, sub)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, dup int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateAnswer):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != n-1 {
		t.Fatalf("expected exactly one success, got ok=%d dup=%d", ok, dup)
	}
	if env.answers.Count() != 1 {
		t.Fatalf("expected one record, got %d", env.answers.Count())
	}
}

func TestSubmitEnforcesServerDeadline(t *testing.T) {
	ctx := context.Background()
	env := newScoringEnv(t)

	// Past the 30s window: a selected answer is rejected.
	env.clock.Advance(31 * time.Second)
	_, err := env.engine.Submit(ctx, domain.AnswerSubmission{UserID: "u1", QuestionID: "q1", SelectedOption: strPtr("B")})
	if !errors.Is(err, domain.ErrAnswerClosed) {
		t.Fatalf("expected answer closed, got %v", err)
	}

	// A timeout record is still accepted so the non-answer becomes a fact.
	res, err := env.engine.Submit(ctx, domain.AnswerSubmission{UserID: "u1", QuestionID: "q1"})
	if err != nil {
		t.Fatalf("timeout submit: %v", err)
	}
	if !res.TimedOut || res.Awarded != 0 {
		t.Fatalf("expected timeout score, got %+v", res)
	}
}

func TestSubmitRejectsNonCurrentQuestion(t *testing.T) {
	ctx := context.Background()
	env := newScoringEnv(t)

	_, err := env.engine.Submit(ctx, domain.AnswerSubmission{UserID: "u1", QuestionID: "q2", SelectedOption: strPtr("B")})
	if !errors.Is(err, domain.ErrAnswerClosed) {
		t.Fatalf("expected answer closed for non-current question, got %v", err)
	}
}

func TestSubmitUsesConfiguredRules(t *testing.T) {
	ctx := context.Background()
	env := newScoringEnv(t)
	env.rules.Set(domain.ScoringRules{Version: 2, BaseScore: 10, RandomBonusMin: 2, RandomBonusMax: 4, ParticipationScore: 3, TimeoutScore: 1})

	res, err := env.engine.Submit(ctx, domain.AnswerSubmission{UserID: "u1", QuestionID: "q1", SelectedOption: strPtr("A")})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Awarded != 3 {
		t.Fatalf("expected configured participation score 3, got %d", res.Awarded)
	}
}
