// Package lease provides a Redis-backed per-thread lease so that turns for
// one thread stay serialized even when several server instances share the
// same checkpoint store.
package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	errx "github.com/AbhaySolanki007/Insurance-helpdesk/internal/core/error"
	"github.com/AbhaySolanki007/Insurance-helpdesk/internal/workflow"
	logx "github.com/AbhaySolanki007/Insurance-helpdesk/pkg/logger"
)

// Config carries the lease tunables, sourced from the environment.
type Config struct {
	// TTL bounds how long a crashed holder can block a thread.
	TTL time.Duration `envconfig:"LEASE_TTL" default:"30s"`
	// RetryDelay is the pause between acquisition attempts on a held lease.
	RetryDelay time.Duration `envconfig:"LEASE_RETRY_DELAY" default:"50ms"`
}

// Only the holder's token may delete the lease key; an expired lease taken
// over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLease serializes turns for one thread across process instances using
// SET NX with a per-acquisition token under a TTL.
type RedisLease struct {
	rdb   redis.Cmdable
	ttl   time.Duration
	retry time.Duration
}

// NewRedisLease creates a lease over the given client.
func NewRedisLease(rdb redis.Cmdable, cfg Config) *RedisLease {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := cfg.RetryDelay
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &RedisLease{rdb: rdb, ttl: ttl, retry: retry}
}

func (l *RedisLease) key(threadID string) string {
	return fmt.Sprintf("workflow:lease:%s", threadID)
}

// Acquire blocks until the thread's lease is held or ctx ends.
func (l *RedisLease) Acquire(ctx context.Context, threadID string) (func(), error) {
	key := l.key(threadID)
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to acquire thread lease")
			return nil, errx.WrapRedis(err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	release := func() {
		// Release with a fresh context so a canceled request still frees
		// the thread.
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			logx.Warn().Err(err).Str("key", key).Msg("failed to release thread lease")
		}
	}
	return release, nil
}

var _ workflow.ThreadLease = (*RedisLease)(nil)
