package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"event-live-service/internal/domain"
)

type answerKey struct {
	userID     string
	questionID string
}

// AnswerStore keeps answer records in memory with the same per-(user,
// question) uniqueness the Postgres store enforces with a constraint.
type AnswerStore struct {
	mu      sync.Mutex
	records map[answerKey]domain.AnswerRecord
}

func NewAnswerStore() *AnswerStore {
	return &AnswerStore{records: make(map[answerKey]domain.AnswerRecord)}
}

func (s *AnswerStore) Insert(_ context.Context, rec domain.AnswerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := answerKey{userID: rec.UserID, questionID: rec.QuestionID}
	if _, ok := s.records[key]; ok {
		return domain.ErrDuplicateAnswer
	}
	s.records[key] = rec
	return nil
}

// Leaderboard aggregates awarded scores per user, highest first. Ties break
// by whoever reached their total earlier, then by user id.
func (s *AnswerStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[string]int)
	lastAnswer := make(map[string]time.Time)
	for _, rec := range s.records {
		totals[rec.UserID] += rec.Awarded
		if rec.CreatedAt.After(lastAnswer[rec.UserID]) {
			lastAnswer[rec.UserID] = rec.CreatedAt
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(totals))
	for userID, score := range totals {
		entries = append(entries, domain.LeaderboardEntry{UserID: userID, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		ti, tj := lastAnswer[entries[i].UserID], lastAnswer[entries[j].UserID]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Count reports how many records exist; handy for concurrency tests.
func (s *AnswerStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
