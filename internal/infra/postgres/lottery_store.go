package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"event-live-service/internal/domain"
)

// DrawRecordStore persists immutable lottery audit snapshots. The full
// eligible pool is stored as JSONB so a draw can be audited or replayed later.
type DrawRecordStore struct {
	pool *pgxpool.Pool
}

func NewDrawRecordStore(pool *pgxpool.Pool) *DrawRecordStore {
	return &DrawRecordStore{pool: pool}
}

func (s *DrawRecordStore) Insert(ctx context.Context, rec domain.LotteryDrawRecord) error {
	snapshot, err := json.Marshal(rec.Participants)
	if err != nil {
		return fmt.Errorf("encode participant snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO lottery_draw_records
			(id, winner_user_id, winner_display_name, participants, participant_count, drawn_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Winner.UserID, rec.Winner.DisplayName, snapshot, rec.ParticipantCount, rec.DrawnAt,
	)
	if err != nil {
		return fmt.Errorf("insert draw record: %w", err)
	}
	return nil
}

func (s *DrawRecordStore) List(ctx context.Context, limit int) ([]domain.LotteryDrawRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, winner_user_id, winner_display_name, participants, participant_count, drawn_at
		FROM lottery_draw_records
		ORDER BY drawn_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query draw records: %w", err)
	}
	defer rows.Close()

	var records []domain.LotteryDrawRecord
	for rows.Next() {
		var rec domain.LotteryDrawRecord
		var snapshot []byte
		if err := rows.Scan(&rec.ID, &rec.Winner.UserID, &rec.Winner.DisplayName, &snapshot, &rec.ParticipantCount, &rec.DrawnAt); err != nil {
			return nil, fmt.Errorf("scan draw record: %w", err)
		}
		if err := json.Unmarshal(snapshot, &rec.Participants); err != nil {
			return nil, fmt.Errorf("decode participant snapshot: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ParticipantStore resolves lottery eligibility: any user with at least one
// publicly visible contribution.
type ParticipantStore struct {
	pool *pgxpool.Pool
}

func NewParticipantStore(pool *pgxpool.Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

func (s *ParticipantStore) EligibleParticipants(ctx context.Context) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, display_name
		FROM participants
		WHERE public_contributions > 0
		ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query eligible participants: %w", err)
	}
	defer rows.Close()

	var pool []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.UserID, &p.DisplayName); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		pool = append(pool, p)
	}
	return pool, rows.Err()
}

// RulesStore reads the highest-version scoring rules row.
type RulesStore struct {
	pool *pgxpool.Pool
}

func NewRulesStore(pool *pgxpool.Pool) *RulesStore {
	return &RulesStore{pool: pool}
}

func (s *RulesStore) GetRules(ctx context.Context) (domain.ScoringRules, error) {
	var r domain.ScoringRules
	err := s.pool.QueryRow(ctx, `
		SELECT version, base_score, random_bonus_min, random_bonus_max, participation_score, timeout_score
		FROM scoring_rules
		ORDER BY version DESC
		LIMIT 1`).Scan(&r.Version, &r.BaseScore, &r.RandomBonusMin, &r.RandomBonusMax, &r.ParticipationScore, &r.TimeoutScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ScoringRules{}, domain.ErrRulesNotFound
	}
	if err != nil {
		return domain.ScoringRules{}, fmt.Errorf("load scoring rules: %w", err)
	}
	return r, nil
}
