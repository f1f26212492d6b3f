package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"event-live-service/internal/domain"
)

// Singleton state rows live as JSON values with a companion version counter.
// Conditional updates go through a Lua script so the compare and the swap are
// one atomic step on the server, which is what lets concurrent admin actions
// serialize instead of overwriting each other:
//
//	game:state       {json}    game:state:ver    {int}
//	lottery:state    {json}    lottery:state:ver {int}
var casScript = redis.NewScript(`
local ver = redis.call('GET', KEYS[2])
if not ver then ver = '0' end
if ver ~= ARGV[1] then return 0 end
redis.call('SET', KEYS[1], ARGV[2])
redis.call('SET', KEYS[2], ARGV[3])
return 1
`)

// GameStateStore implements app.GameStateRepository on Redis.
type GameStateStore struct {
	client *redis.Client
}

func NewGameStateStore(client *redis.Client) *GameStateStore {
	return &GameStateStore{client: client}
}

func (s *GameStateStore) Get(ctx context.Context) (domain.GameState, error) {
	var st domain.GameState
	if err := getSingleton(ctx, s.client, "game:state", &st); err != nil {
		return domain.GameState{}, err
	}
	return st, nil
}

func (s *GameStateStore) UpdateIf(ctx context.Context, expectedVersion int64, next domain.GameState) (domain.GameState, error) {
	next.Version = expectedVersion + 1
	if err := updateSingletonIf(ctx, s.client, "game:state", expectedVersion, next); err != nil {
		return domain.GameState{}, err
	}
	return next, nil
}

// LotteryStateStore implements app.LotteryStateRepository on Redis. The
// persisted isDrawing flag survives process restarts, which is the point:
// the mutex must be visible to every instance and to operators.
type LotteryStateStore struct {
	client *redis.Client
}

func NewLotteryStateStore(client *redis.Client) *LotteryStateStore {
	return &LotteryStateStore{client: client}
}

func (s *LotteryStateStore) Get(ctx context.Context) (domain.LotteryState, error) {
	var st domain.LotteryState
	if err := getSingleton(ctx, s.client, "lottery:state", &st); err != nil {
		return domain.LotteryState{}, err
	}
	return st, nil
}

func (s *LotteryStateStore) UpdateIf(ctx context.Context, expectedVersion int64, next domain.LotteryState) (domain.LotteryState, error) {
	next.Version = expectedVersion + 1
	if err := updateSingletonIf(ctx, s.client, "lottery:state", expectedVersion, next); err != nil {
		return domain.LotteryState{}, err
	}
	return next, nil
}

// getSingleton leaves dst at its zero value (version 0) when the row has
// never been written; first writers CAS against version 0.
func getSingleton(ctx context.Context, client *redis.Client, key string, dst any) error {
	raw, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func updateSingletonIf(ctx context.Context, client *redis.Client, key string, expectedVersion int64, next any) error {
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	ok, err := casScript.Run(ctx, client,
		[]string{key, key + ":ver"},
		expectedVersion, payload, expectedVersion+1,
	).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	if ok == 0 {
		return domain.ErrConflict
	}
	return nil
}
