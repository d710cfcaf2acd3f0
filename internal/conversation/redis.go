// Package conversation provides the durable conversation log: an
// append-only list of completed turns per thread.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/AbhaySolanki007/Insurance-helpdesk/internal/core/error"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// RedisStore keeps each thread's turn log in a Redis list.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed conversation store. A zero TTL keeps
// conversations until an explicit reset.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) key(threadID string) string {
	return fmt.Sprintf("conversation:%s:turns", threadID)
}

// AppendTurn appends one completed turn to the thread's log.
func (r *RedisStore) AppendTurn(ctx context.Context, threadID string, turn workflow.TurnRecord) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := r.key(threadID)

	// append turn
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on conversation key")
		}
	}
	return nil
}

// History returns the thread's full turn log, oldest first.
func (r *RedisStore) History(ctx context.Context, threadID string) ([]workflow.TurnRecord, error) {
	key := r.key(threadID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []workflow.TurnRecord{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]workflow.TurnRecord, 0, len(rows))
	for i, s := range rows {
		var turn workflow.TurnRecord
		if err := json.Unmarshal([]byte(s), &turn); err != nil {
			logx.Error().Err(err).Str("thread_id", threadID).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Clear removes the thread's turn log.
func (r *RedisStore) Clear(ctx context.Context, threadID string) error {
	key := r.key(threadID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ workflow.ConversationLog = (*RedisStore)(nil)
