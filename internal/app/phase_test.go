package app_test

import (
	"context"
	"testing"
	"time"

	"event-live-service/internal/app"
	"event-live-service/internal/domain"
)

func liveState(start time.Time, display, answer time.Duration) domain.GameState {
	qid := "q1"
	return domain.GameState{
		Version:           1,
		SessionID:         "s1",
		IsActive:          true,
		CurrentQuestionID: &qid,
		QuestionStartTime: &start,
		DisplayDuration:   domain.Duration(display),
		AnswerDuration:    domain.Duration(answer),
		TotalQuestions:    3,
	}
}

func TestDerivePhaseTimeline(t *testing.T) {
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	st := liveState(start, 10*time.Second, 20*time.Second)

	cases := []struct {
		offset time.Duration
		want   domain.Phase
	}{
		{0, domain.PhaseQuestion},
		{9 * time.Second, domain.PhaseQuestion},
		{10 * time.Second, domain.PhaseAnswering},
		{29 * time.Second, domain.PhaseAnswering},
		{30 * time.Second, domain.PhaseRankings},
		{5 * time.Minute, domain.PhaseRankings},
	}
	for _, tc := range cases {
		if got := app.DerivePhase(st, start.Add(tc.offset)); got != tc.want {
			t.Fatalf("at +%v: expected %s, got %s", tc.offset, tc.want, got)
		}
	}
}

func TestDerivePhaseWithoutQuestion(t *testing.T) {
	st := domain.GameState{IsActive: false}
	if got := app.DerivePhase(st, time.Now()); got != domain.PhaseWaiting {
		t.Fatalf("idle state should derive waiting, got %s", got)
	}

	st = domain.GameState{IsActive: true, TotalQuestions: 3, CompletedQuestions: 1}
	if got := app.DerivePhase(st, time.Now()); got != domain.PhaseWaiting {
		t.Fatalf("between questions should derive waiting, got %s", got)
	}

	st.CompletedQuestions = 3
	if got := app.DerivePhase(st, time.Now()); got != domain.PhaseRankings {
		t.Fatalf("exhausted questions should derive rankings, got %s", got)
	}
}

func TestEffectiveTimeRemainingMonotonic(t *testing.T) {
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	st := liveState(start, 10*time.Second, 20*time.Second)

	prev := app.EffectiveTimeRemaining(st, start)
	if prev != 30*time.Second {
		t.Fatalf("expected full window at start, got %v", prev)
	}
	for offset := time.Second; offset <= 40*time.Second; offset += time.Second {
		rem := app.EffectiveTimeRemaining(st, start.Add(offset))
		if rem > prev {
			t.Fatalf("remaining increased from %v to %v at +%v", prev, rem, offset)
		}
		prev = rem
	}
	if prev != 0 {
		t.Fatalf("remaining should clamp to zero, got %v", prev)
	}
}

func TestPausedStateFreezesCountdown(t *testing.T) {
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	st := liveState(start, 10*time.Second, 20*time.Second)
	pausedAt := start.Add(12 * time.Second)
	st.IsPaused = true
	st.PausedAt = &pausedAt

	want := app.EffectiveTimeRemaining(st, pausedAt)
	for _, later := range []time.Duration{time.Second, time.Minute, time.Hour} {
		if got := app.EffectiveTimeRemaining(st, pausedAt.Add(later)); got != want {
			t.Fatalf("paused remaining drifted at +%v: %v != %v", later, got, want)
		}
		if got := app.DerivePhase(st, pausedAt.Add(later)); got != domain.PhaseAnswering {
			t.Fatalf("paused phase drifted at +%v: %s", later, got)
		}
	}
}

// Two different transition paths that land on an equivalent committed state
// must present the same phase and countdown to viewers.
func TestPhasePathIndependence(t *testing.T) {
	ctx := context.Background()

	envA := newControllerEnv(t)
	if _, err := envA.controller.Start(ctx, "q1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	envA.clock.Advance(3 * time.Second)
	stA, err := envA.controller.Advance(ctx, strPtr("q2"))
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	envB := newControllerEnv(t)
	if _, err := envB.controller.Start(ctx, "q1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	envB.clock.Advance(time.Second)
	if _, err := envB.controller.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	envB.clock.Advance(time.Minute)
	if _, err := envB.controller.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	envB.clock.Advance(2 * time.Second)
	stB, err := envB.controller.Advance(ctx, strPtr("q2"))
	if err != nil {
		t.Fatalf("advance: %v", err)
	}

	nowA, nowB := envA.clock.Now(), envB.clock.Now()
	if pa, pb := app.DerivePhase(stA, nowA), app.DerivePhase(stB, nowB); pa != pb {
		t.Fatalf("phase differs across paths: %s vs %s", pa, pb)
	}
	if ra, rb := app.EffectiveTimeRemaining(stA, nowA), app.EffectiveTimeRemaining(stB, nowB); ra != rb {
		t.Fatalf("countdown differs across paths: %v vs %v", ra, rb)
	}
}
