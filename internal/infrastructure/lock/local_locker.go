package lock

import (
	"context"
	gosync "sync"

	"github.com/katanaluca/backend/internal/domain/shared"
)

// LocalPassLocker is an in-process locker for single-instance deployments
// where Redis is not configured. Locks are per key and non-blocking.
type LocalPassLocker struct {
	mu   gosync.Mutex
	held map[string]bool
}

// NewLocalPassLocker creates an in-process pass locker.
func NewLocalPassLocker() *LocalPassLocker {
	return &LocalPassLocker{
		held: make(map[string]bool),
	}
}

// Acquire obtains the lock for key or reports the pass as already in flight.
func (l *LocalPassLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return nil, shared.ErrPassInFlight
	}
	l.held[key] = true

	var once gosync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.held, key)
		})
	}
	return release, nil
}
