package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"event-live-service/internal/domain"
	"event-live-service/internal/infra/memory"
)

func record(userID, questionID string, awarded int, at time.Time) domain.AnswerRecord {
	return domain.AnswerRecord{
		UserID:     userID,
		QuestionID: questionID,
		Awarded:    awarded,
		CreatedAt:  at,
	}
}

func TestAnswerStoreRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAnswerStore()
	now := time.Now()

	if err := store.Insert(ctx, record("u1", "q1", 50, now)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, record("u1", "q1", 99, now)); !errors.Is(err, domain.ErrDuplicateAnswer) {
		t.Fatalf("expected duplicate answer, got %v", err)
	}
	if err := store.Insert(ctx, record("u1", "q2", 50, now)); err != nil {
		t.Fatalf("different question must be allowed: %v", err)
	}
	if err := store.Insert(ctx, record("u2", "q1", 50, now)); err != nil {
		t.Fatalf("different user must be allowed: %v", err)
	}
	if store.Count() != 3 {
		t.Fatalf("expected 3 records, got %d", store.Count())
	}
}

func TestAnswerStoreLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAnswerStore()
	base := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	// u2 leads on score; u1 and u3 tie on 100 but u3 got there earlier.
	inserts := []domain.AnswerRecord{
		record("u1", "q1", 50, base),
		record("u1", "q2", 50, base.Add(40*time.Second)),
		record("u2", "q1", 90, base),
		record("u2", "q2", 60, base.Add(35*time.Second)),
		record("u3", "q1", 70, base),
		record("u3", "q2", 30, base.Add(30*time.Second)),
	}
	for _, rec := range inserts {
		if err := store.Insert(ctx, rec); err != nil {
			t.Fatalf("insert %s/%s: %v", rec.UserID, rec.QuestionID, err)
		}
	}

	entries, err := store.Leaderboard(ctx, 0)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	want := []struct {
		userID string
		score  int
	}{
		{"u2", 150},
		{"u3", 100},
		{"u1", 100},
	}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].UserID != w.userID || entries[i].Score != w.score {
			t.Fatalf("position %d: expected %s=%d, got %s=%d", i, w.userID, w.score, entries[i].UserID, entries[i].Score)
		}
	}

	top, err := store.Leaderboard(ctx, 1)
	if err != nil {
		t.Fatalf("leaderboard limit: %v", err)
	}
	if len(top) != 1 || top[0].UserID != "u2" {
		t.Fatalf("limit should truncate, got %+v", top)
	}
}
