package memory

import (
	"context"
	"sync"

	"event-live-service/internal/domain"
)

// DrawRecordStore keeps lottery audit snapshots in memory, newest first.
type DrawRecordStore struct {
	mu      sync.Mutex
	records []domain.LotteryDrawRecord
}

func NewDrawRecordStore() *DrawRecordStore {
	return &DrawRecordStore{}
}

func (s *DrawRecordStore) Insert(_ context.Context, rec domain.LotteryDrawRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]domain.LotteryDrawRecord{rec}, s.records...)
	return nil
}

func (s *DrawRecordStore) List(_ context.Context, limit int) ([]domain.LotteryDrawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.records)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]domain.LotteryDrawRecord, n)
	copy(out, s.records[:n])
	return out, nil
}

// ParticipantStore serves a fixed eligible pool (tests/demos).
type ParticipantStore struct {
	mu   sync.Mutex
	pool []domain.Participant
}

func NewParticipantStore(pool []domain.Participant) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

func (s *ParticipantStore) EligibleParticipants(_ context.Context) ([]domain.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Participant, len(s.pool))
	copy(out, s.pool)
	return out, nil
}

// RulesStore holds an optional scoring rules row.
type RulesStore struct {
	mu    sync.Mutex
	rules *domain.ScoringRules
}

func NewRulesStore() *RulesStore {
	return &RulesStore{}
}

func (s *RulesStore) Set(rules domain.ScoringRules) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = &rules
}

func (s *RulesStore) GetRules(_ context.Context) (domain.ScoringRules, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rules == nil {
		return domain.ScoringRules{}, domain.ErrRulesNotFound
	}
	return *s.rules, nil
}
