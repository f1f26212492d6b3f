package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"event-live-service/internal/domain"
)

// LotteryCoordinator runs single-winner draws guarded by the persisted
// isDrawing flag. The flag is a cooperative mutex across stateless handlers:
// a held flag rejects immediately, never queues, and a failed draw must still
// try to release it so the system cannot wedge.
type LotteryCoordinator struct {
	states       LotteryStateRepository
	draws        DrawRecordRepository
	participants ParticipantRepository
	clock        clockwork.Clock
	intn         func(n int) int
}

// LotteryConfig lets tests pin the clock and winner selection.
type LotteryConfig struct {
	Clock clockwork.Clock
	Intn  func(n int) int
}

func NewLotteryCoordinator(states LotteryStateRepository, draws DrawRecordRepository, participants ParticipantRepository, cfg LotteryConfig) *LotteryCoordinator {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Intn == nil {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		cfg.Intn = rnd.Intn
	}
	return &LotteryCoordinator{
		states:       states,
		draws:        draws,
		participants: participants,
		clock:        cfg.Clock,
		intn:         cfg.Intn,
	}
}

// Draw selects one uniform-random winner from the eligible pool and persists
// an immutable audit snapshot. Exactly one of two concurrent calls wins the
// flag; the loser gets ErrDrawInProgress.
func (c *LotteryCoordinator) Draw(ctx context.Context) (domain.LotteryDrawRecord, error) {
	st, err := c.states.Get(ctx)
	if err != nil {
		return domain.LotteryDrawRecord{}, err
	}
	if st.IsDrawing {
		return domain.LotteryDrawRecord{}, domain.ErrDrawInProgress
	}

	pool, err := c.participants.EligibleParticipants(ctx)
	if err != nil {
		return domain.LotteryDrawRecord{}, err
	}
	if len(pool) == 0 {
		return domain.LotteryDrawRecord{}, domain.ErrNoEligibleParticipants
	}

	now := c.clock.Now()
	locked := st
	locked.IsDrawing = true
	locked.DrawStartedAt = &now
	if _, err := c.states.UpdateIf(ctx, st.Version, locked); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return domain.LotteryDrawRecord{}, domain.ErrDrawInProgress
		}
		return domain.LotteryDrawRecord{}, err
	}

	rec := domain.LotteryDrawRecord{
		ID:               uuid.NewString(),
		Winner:           pool[c.intn(len(pool))],
		Participants:     pool,
		ParticipantCount: len(pool),
		DrawnAt:          now,
	}
	if err := c.draws.Insert(ctx, rec); err != nil {
		// Mandatory best-effort unlock: a stuck flag blocks every later draw.
		if uerr := c.release(ctx, nil); uerr != nil {
			log.Error().Err(uerr).Str("draw_id", rec.ID).Msg("failed to release draw flag after insert failure")
		}
		return domain.LotteryDrawRecord{}, fmt.Errorf("persist draw record: %w", err)
	}

	if err := c.release(ctx, &rec.ID); err != nil {
		return rec, fmt.Errorf("draw recorded but flag release failed: %w", err)
	}
	log.Info().
		Str("draw_id", rec.ID).
		Str("winner", rec.Winner.UserID).
		Int("participants", rec.ParticipantCount).
		Msg("lottery draw completed")
	return rec, nil
}

// Reset is the operator-facing recovery path for a flag left stuck by a crash
// between lock and release. It clears the mutex unconditionally.
func (c *LotteryCoordinator) Reset(ctx context.Context) (domain.LotteryState, error) {
	for attempt := 0; attempt < releaseAttempts; attempt++ {
		st, err := c.states.Get(ctx)
		if err != nil {
			return domain.LotteryState{}, err
		}
		out := st
		out.IsDrawing = false
		out.CurrentDrawID = nil
		out.DrawStartedAt = nil
		updated, err := c.states.UpdateIf(ctx, st.Version, out)
		if err == nil {
			log.Info().Msg("lottery state reset")
			return updated, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return domain.LotteryState{}, err
		}
	}
	return domain.LotteryState{}, domain.ErrConflict
}

// State exposes the current coordination record.
func (c *LotteryCoordinator) State(ctx context.Context) (domain.LotteryState, error) {
	return c.states.Get(ctx)
}

// Draws lists recent audit records, newest first.
func (c *LotteryCoordinator) Draws(ctx context.Context, limit int) ([]domain.LotteryDrawRecord, error) {
	return c.draws.List(ctx, limit)
}

const releaseAttempts = 3

// release clears the flag and, on success paths, records the finished draw id.
// Conflicts are retried a few times; only a persistent store failure escapes.
func (c *LotteryCoordinator) release(ctx context.Context, drawID *string) error {
	var lastErr error
	for attempt := 0; attempt < releaseAttempts; attempt++ {
		st, err := c.states.Get(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		out := st
		out.IsDrawing = false
		out.DrawStartedAt = nil
		if drawID != nil {
			out.CurrentDrawID = drawID
		}
		if _, err := c.states.UpdateIf(ctx, st.Version, out); err == nil {
			return nil
		} else if !errors.Is(err, domain.ErrConflict) {
			lastErr = err
			continue
		} else {
			lastErr = err
		}
	}
	return lastErr
}
