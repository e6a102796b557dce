package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/trina/internal/domain"
)

// exercise checks that at most one holder is inside the critical section.
func exercise(t *testing.T, locker domain.Locker) {
	t.Helper()

	var inside, maxInside, total int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(context.Background(), "c1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			atomic.AddInt32(&total, 1)
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, int32(20), total)
}

func TestLocalMutualExclusion(t *testing.T) {
	l := NewLocal()
	exercise(t, l)
	assert.Equal(t, 0, l.size())
}

func TestLocalIndependentKeys(t *testing.T) {
	l := NewLocal()
	releaseA, err := l.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := l.Lock(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestLocalContextCancelled(t *testing.T) {
	l := NewLocal()
	release, err := l.Lock(context.Background(), "c1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, "c1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release() // idempotent
	assert.Equal(t, 0, l.size())
}

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	r := NewRedis(client, time.Minute)
	r.poll = 2 * time.Millisecond
	return r, mr
}

func TestRedisMutualExclusion(t *testing.T) {
	r, mr := newTestRedis(t)
	exercise(t, r)
	assert.False(t, mr.Exists(lockKey("c1")))
}

func TestRedisReleaseOnlyOwnToken(t *testing.T) {
	r, mr := newTestRedis(t)

	release, err := r.Lock(context.Background(), "c1")
	require.NoError(t, err)

	// Simulate expiry and takeover by another instance.
	require.NoError(t, mr.Set(lockKey("c1"), "someone-else"))
	release()

	got, err := mr.Get(lockKey("c1"))
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisContextCancelled(t *testing.T) {
	r, _ := newTestRedis(t)

	release, err := r.Lock(context.Background(), "c1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = r.Lock(ctx, "c1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisUnavailable(t *testing.T) {
	r, mr := newTestRedis(t)
	mr.Close()

	_, err := r.Lock(context.Background(), "c1")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
