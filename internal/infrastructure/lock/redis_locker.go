package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/katanaluca/backend/internal/domain/shared"
)

// RedisPassLocker coordinates sync passes across instances using Redis locks.
// A pass that cannot obtain its lock is already running elsewhere.
type RedisPassLocker struct {
	locker *redislock.Client
	ttl    time.Duration
}

// NewRedisPassLocker creates a locker backed by the given Redis client.
// ttl bounds how long a crashed holder can keep a pass blocked.
func NewRedisPassLocker(client *redis.Client, ttl time.Duration) *RedisPassLocker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisPassLocker{
		locker: redislock.New(client),
		ttl:    ttl,
	}
}

// Acquire obtains the lock for key or reports the pass as already in flight.
func (l *RedisPassLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := l.locker.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, shared.ErrPassInFlight
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = lock.Release(releaseCtx)
	}
	return release, nil
}
