package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteQueue_SerialisesTasks(t *testing.T) {
	q := NewWriteQueue(nil)
	defer q.Shutdown(context.Background())

	var (
		running int32
		maxSeen int32
		counter int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Do(context.Background(), "register", func(context.Context) error {
				n := atomic.AddInt32(&running, 1)
				for {
					m := atomic.LoadInt32(&maxSeen)
					if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
						break
					}
				}
				// read-then-write without a lock: only safe because tasks are serialised
				v := counter
				time.Sleep(time.Millisecond)
				counter = v + 1
				atomic.AddInt32(&running, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxSeen))
}

func TestWriteQueue_PropagatesErrorsAndPanics(t *testing.T) {
	q := NewWriteQueue(nil)
	defer q.Shutdown(context.Background())

	boom := errors.New("boom")
	assert.ErrorIs(t, q.Do(context.Background(), "fail", func(context.Context) error { return boom }), boom)

	err := q.Do(context.Background(), "panic", func(context.Context) error { panic("bad") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	assert.NoError(t, q.Do(context.Background(), "after", func(context.Context) error { return nil }))
}

func TestWriteQueue_AppliesTimeout(t *testing.T) {
	q := NewWriteQueue(nil, WithTaskTimeout(10*time.Millisecond))
	defer q.Shutdown(context.Background())

	err := q.Do(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWriteQueue_ClosedAfterShutdown(t *testing.T) {
	q := NewWriteQueue(nil, WithWorkers(2), WithQueueSize(4))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Do(context.Background(), "late", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}

func TestInline(t *testing.T) {
	called := false
	err := Inline{}.Do(context.Background(), "x", func(context.Context) error { called = true; return nil })
	require.NoError(t, err)
	assert.True(t, called)
}
