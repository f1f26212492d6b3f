package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"event-live-service/internal/domain"
	"event-live-service/internal/infra/memory"
)

// countingLoader tracks backing-store hits so tests can assert the cache
// actually absorbs repeat reads.
type countingLoader struct {
	inner memory.QuestionLoader
	loads atomic.Int64
}

func (l *countingLoader) LoadQuestion(ctx context.Context, id string) (domain.Question, error) {
	l.loads.Add(1)
	return l.inner.LoadQuestion(ctx, id)
}

func (l *countingLoader) CountQuestions(ctx context.Context) (int, error) {
	return l.inner.CountQuestions(ctx)
}

func sampleQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"q1": {ID: "q1", Text: "first", CorrectOption: "A"},
		"q2": {ID: "q2", Text: "second", CorrectOption: "B"},
	}
}

func TestQuestionRepositoryCachesReads(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{inner: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := memory.NewQuestionRepository(loader, time.Minute)

	for i := 0; i < 5; i++ {
		q, err := repo.GetQuestion(ctx, "q1")
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if q.Text != "first" {
			t.Fatalf("wrong question: %+v", q)
		}
	}
	if got := loader.loads.Load(); got != 1 {
		t.Fatalf("expected a single backing load, got %d", got)
	}

	if _, err := repo.GetQuestion(ctx, "q2"); err != nil {
		t.Fatalf("get q2: %v", err)
	}
	if got := loader.loads.Load(); got != 2 {
		t.Fatalf("expected one load per question, got %d", got)
	}
}

func TestQuestionRepositoryCollapsesConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{inner: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := memory.NewQuestionRepository(loader, time.Minute)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.GetQuestion(ctx, "q1"); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := loader.loads.Load(); got != 1 {
		t.Fatalf("concurrent misses should collapse to one load, got %d", got)
	}
}

func TestQuestionRepositoryUnknownQuestion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(sampleQuestions()), time.Minute)

	if _, err := repo.GetQuestion(ctx, "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected question not found, got %v", err)
	}
	if n, err := repo.CountQuestions(ctx); err != nil || n != 2 {
		t.Fatalf("count: %d, %v", n, err)
	}
}
