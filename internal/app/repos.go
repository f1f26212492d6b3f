package app

import (
	"context"

	"event-live-service/internal/domain"
)

// StateReader is the read side of the game state store; viewers poll through it.
type StateReader interface {
	Get(ctx context.Context) (domain.GameState, error)
}

// GameStateRepository abstracts the singleton game state row. UpdateIf is a
// compare-and-swap keyed on Version: it commits only when the stored version
// still equals expectedVersion and returns domain.ErrConflict otherwise. The
// store bumps Version on every committed write.
type GameStateRepository interface {
	StateReader
	UpdateIf(ctx context.Context, expectedVersion int64, next domain.GameState) (domain.GameState, error)
}

// LotteryStateRepository is the same contract for the lottery singleton.
type LotteryStateRepository interface {
	Get(ctx context.Context) (domain.LotteryState, error)
	UpdateIf(ctx context.Context, expectedVersion int64, next domain.LotteryState) (domain.LotteryState, error)
}

// AnswerRepository appends scoring facts. Insert returns
// domain.ErrDuplicateAnswer when a record for the same (user, question) pair
// already exists; the uniqueness constraint lives in the store, not the engine.
type AnswerRepository interface {
	Insert(ctx context.Context, rec domain.AnswerRecord) error
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// QuestionRepository loads published question content.
type QuestionRepository interface {
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
	CountQuestions(ctx context.Context) (int, error)
}

// RulesRepository loads the current scoring rules row, or
// domain.ErrRulesNotFound when none has been configured.
type RulesRepository interface {
	GetRules(ctx context.Context) (domain.ScoringRules, error)
}

// ParticipantRepository resolves the lottery-eligible pool (users with at
// least one publicly visible contribution).
type ParticipantRepository interface {
	EligibleParticipants(ctx context.Context) ([]domain.Participant, error)
}

// DrawRecordRepository stores immutable draw audit snapshots.
type DrawRecordRepository interface {
	Insert(ctx context.Context, rec domain.LotteryDrawRecord) error
	List(ctx context.Context, limit int) ([]domain.LotteryDrawRecord, error)
}

// StateEvent is one fan-out message on the change feed. It carries the full
// committed snapshot so consumers never need to diff.
type StateEvent struct {
	Type  string           `json:"type"`
	State domain.GameState `json:"state"`
}

const (
	EventStarted   = "started"
	EventAdvanced  = "advanced"
	EventPaused    = "paused"
	EventResumed   = "resumed"
	EventStopped   = "stopped"
	EventCompleted = "completed"
)

// Notifier publishes committed state changes to the change feed.
type Notifier interface {
	Publish(ctx context.Context, ev StateEvent) error
}

// Subscriber delivers change-feed events. The cancel func must be called to
// release the subscription; the channel closes when the feed ends.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan StateEvent, func(), error)
}
