package lock

import (
	"context"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katanaluca/backend/internal/domain/shared"
)

func TestLocalPassLocker_AcquireAndRelease(t *testing.T) {
	locker := NewLocalPassLocker()

	release, err := locker.Acquire(context.Background(), "sync:pass:PRODUCT")
	require.NoError(t, err)
	require.NotNil(t, release)

	// Same key is held until released
	_, err = locker.Acquire(context.Background(), "sync:pass:PRODUCT")
	assert.ErrorIs(t, err, shared.ErrPassInFlight)

	release()

	release2, err := locker.Acquire(context.Background(), "sync:pass:PRODUCT")
	require.NoError(t, err)
	release2()
}

func TestLocalPassLocker_IndependentKeys(t *testing.T) {
	locker := NewLocalPassLocker()

	release1, err := locker.Acquire(context.Background(), "sync:pass:PRODUCT")
	require.NoError(t, err)
	defer release1()

	release2, err := locker.Acquire(context.Background(), "sync:pass:CUSTOMER")
	require.NoError(t, err)
	defer release2()
}

func TestLocalPassLocker_ReleaseIsIdempotent(t *testing.T) {
	locker := NewLocalPassLocker()

	release, err := locker.Acquire(context.Background(), "sync:pass:SUPPLIER")
	require.NoError(t, err)

	release()
	release() // second call must not release someone else's lock

	releaseAgain, err := locker.Acquire(context.Background(), "sync:pass:SUPPLIER")
	require.NoError(t, err)

	release() // stale release from the first acquisition

	_, err = locker.Acquire(context.Background(), "sync:pass:SUPPLIER")
	assert.ErrorIs(t, err, shared.ErrPassInFlight)
	releaseAgain()
}

func TestLocalPassLocker_CancelledContext(t *testing.T) {
	locker := NewLocalPassLocker()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := locker.Acquire(ctx, "sync:pass:PRODUCT")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalPassLocker_ConcurrentAcquire(t *testing.T) {
	locker := NewLocalPassLocker()

	const workers = 16
	var wg gosync.WaitGroup
	var mu gosync.Mutex
	acquired := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "sync:pass:SALES_ORDER")
			if err != nil {
				return
			}
			mu.Lock()
			acquired++
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	// Every successful acquisition released the lock, so at least one
	// goroutine must have won and the lock must be free afterwards.
	assert.GreaterOrEqual(t, acquired, 1)
	release, err := locker.Acquire(context.Background(), "sync:pass:SALES_ORDER")
	require.NoError(t, err)
	release()
}
