package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"event-live-service/internal/domain"
)

// AnswerStore appends scoring facts. The (user_id, question_id) primary key
// is the idempotency mechanism: concurrent duplicate submissions race at the
// constraint, and exactly one insert wins.
type AnswerStore struct {
	pool *pgxpool.Pool
}

func NewAnswerStore(pool *pgxpool.Pool) *AnswerStore {
	return &AnswerStore{pool: pool}
}

func (s *AnswerStore) Insert(ctx context.Context, rec domain.AnswerRecord) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO answer_records
			(user_id, question_id, session_id, selected_option, elapsed_ms, correct, awarded, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, question_id) DO NOTHING`,
		rec.UserID, rec.QuestionID, rec.SessionID, rec.SelectedOption,
		rec.ElapsedMs, rec.Correct, rec.Awarded, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert answer record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateAnswer
	}
	return nil
}

func (s *AnswerStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, COALESCE(SUM(awarded), 0) AS score
		FROM answer_records
		GROUP BY user_id
		ORDER BY score DESC, MAX(created_at) ASC, user_id ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
