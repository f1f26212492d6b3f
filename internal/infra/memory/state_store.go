package memory

import (
	"context"
	"sync"
	"time"

	"event-live-service/internal/domain"
)

// GameStateStore is an in-memory implementation of app.GameStateRepository.
// Useful for tests and for running without Redis; the CAS contract is the
// same one the Redis store honors.
type GameStateStore struct {
	mu sync.Mutex
	st domain.GameState
}

func NewGameStateStore() *GameStateStore {
	return &GameStateStore{}
}

func (s *GameStateStore) Get(_ context.Context) (domain.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGameState(s.st), nil
}

func (s *GameStateStore) UpdateIf(_ context.Context, expectedVersion int64, next domain.GameState) (domain.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.Version != expectedVersion {
		return domain.GameState{}, domain.ErrConflict
	}
	next.Version = expectedVersion + 1
	s.st = cloneGameState(next)
	return cloneGameState(s.st), nil
}

// LotteryStateStore is the in-memory lottery singleton with the same CAS rules.
type LotteryStateStore struct {
	mu sync.Mutex
	st domain.LotteryState
}

func NewLotteryStateStore() *LotteryStateStore {
	return &LotteryStateStore{}
}

func (s *LotteryStateStore) Get(_ context.Context) (domain.LotteryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLotteryState(s.st), nil
}

func (s *LotteryStateStore) UpdateIf(_ context.Context, expectedVersion int64, next domain.LotteryState) (domain.LotteryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.Version != expectedVersion {
		return domain.LotteryState{}, domain.ErrConflict
	}
	next.Version = expectedVersion + 1
	s.st = cloneLotteryState(next)
	return cloneLotteryState(s.st), nil
}

func cloneGameState(st domain.GameState) domain.GameState {
	out := st
	out.CurrentQuestionID = cloneStr(st.CurrentQuestionID)
	out.QuestionStartTime = cloneTime(st.QuestionStartTime)
	out.PausedAt = cloneTime(st.PausedAt)
	return out
}

func cloneLotteryState(st domain.LotteryState) domain.LotteryState {
	out := st
	out.CurrentDrawID = cloneStr(st.CurrentDrawID)
	out.DrawStartedAt = cloneTime(st.DrawStartedAt)
	return out
}

func cloneStr(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
