package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/AbhaySolanki007/Insurance-helpdesk/internal/core/error"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

const redisCheckpointIndex = "workflow:checkpoints"

// RedisStore persists checkpoints in Redis, one key per thread plus a set
// indexing all checkpointed threads. When multiple process instances share
// the store, pair it with the lease package so turns for one thread stay
// serialized across instances.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisStore creates a Redis-backed checkpoint store. A zero TTL keeps
// checkpoints until an explicit reset.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (r *RedisStore) key(threadID string) string {
	return fmt.Sprintf("workflow:checkpoint:%s", threadID)
}

// Save implements Store.
func (r *RedisStore) Save(ctx context.Context, threadID string, data []byte) error {
	key := r.key(threadID)
	if err := r.rdb.Set(ctx, key, data, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save checkpoint to redis")
		return errx.WrapRedis(err)
	}
	if err := r.rdb.SAdd(ctx, redisCheckpointIndex, threadID).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to index checkpoint in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// Load implements Store.
func (r *RedisStore) Load(ctx context.Context, threadID string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, r.key(threadID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		logx.Error().Err(err).Str("key", r.key(threadID)).Msg("failed to load checkpoint from redis")
		return nil, errx.WrapRedis(err)
	}
	return data, nil
}

// Delete implements Store.
func (r *RedisStore) Delete(ctx context.Context, threadID string) error {
	if err := r.rdb.Del(ctx, r.key(threadID)).Err(); err != nil {
		logx.Error().Err(err).Str("key", r.key(threadID)).Msg("failed to delete checkpoint from redis")
		return errx.WrapRedis(err)
	}
	if err := r.rdb.SRem(ctx, redisCheckpointIndex, threadID).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

// List implements Store.
func (r *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := r.rdb.SMembers(ctx, redisCheckpointIndex).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, errx.WrapRedis(err)
	}
	return ids, nil
}

// Close implements Store. The client's lifecycle is owned by the caller.
func (r *RedisStore) Close() error {
	return nil
}

var _ Store = (*RedisStore)(nil)
