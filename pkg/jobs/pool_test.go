package jobs

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

func TestPoolProcessesSubmittedTasks(t *testing.T) {
	var processed int32
	var wg sync.WaitGroup
	wg.Add(3)

	pool := NewPool("test", func(_ context.Context, _ Task) error {
		atomic.AddInt32(&processed, 1)
		wg.Done()
		return nil
	}, PoolConfig{Workers: 2})

	pool.Start(context.Background())
	defer pool.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(Task{ID: "task", Kind: "test"}))
	}
	wg.Wait()
	assert.Equal(t, int32(3), atomic.LoadInt32(&processed))
}

func TestPoolRetriesFailedTasks(t *testing.T) {
	var attempts int32
	done := make(chan struct{})

	pool := NewPool("test", func(_ context.Context, task Task) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("transient")
		}
		close(done)
		return nil
	}, PoolConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})

	pool.Start(context.Background())
	defer pool.Stop()

	require.NoError(t, pool.Submit(Task{ID: "task", Kind: "test"}))
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("task was not retried to success")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestPoolGivesUpAfterMaxRetries(t *testing.T) {
	var attempts int32
	pool := NewPool("test", func(_ context.Context, _ Task) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("permanent")
	}, PoolConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})

	pool.Start(context.Background())
	require.NoError(t, pool.Submit(Task{ID: "task", Kind: "test"}))

	// Stop drains the in-flight retry loop before returning.
	time.Sleep(100 * time.Millisecond)
	pool.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "initial attempt plus two retries")
}

func TestPoolRejectsSubmitBeforeStart(t *testing.T) {
	pool := NewPool("test", func(_ context.Context, _ Task) error { return nil }, PoolConfig{})
	require.Error(t, pool.Submit(Task{ID: "task"}))
}

func TestPoolStartIsIdempotent(t *testing.T) {
	pool := NewPool("test", func(_ context.Context, _ Task) error { return nil }, PoolConfig{Workers: 1})
	ctx := context.Background()
	pool.Start(ctx)
	pool.Start(ctx)
	pool.Stop()
	pool.Stop()
}
