package workflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Casys-AI/flowgrid/types"
)

// ---------------------------------------------------------------------------
// AsyncQueue
// ---------------------------------------------------------------------------

func TestAsyncQueue_FIFOOrder(t *testing.T) {
	t.Parallel()

	q := NewAsyncQueue[int]()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(i))
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		item, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, item)
	}
	assert.Equal(t, 0, q.Len())
}

func TestAsyncQueue_DequeueBlocksUntilEnqueue(t *testing.T) {
	t.Parallel()

	q := NewAsyncQueue[string]()

	got := make(chan string, 1)
	go func() {
		item, err := q.Dequeue(context.Background())
		if err == nil {
			got <- item
		}
	}()

	// Consumer is parked; nothing to receive yet.
	select {
	case <-got:
		t.Fatal("dequeue returned before enqueue")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, q.Enqueue("wake"))

	select {
	case item := <-got:
		assert.Equal(t, "wake", item)
	case <-time.After(time.Second):
		t.Fatal("dequeue did not wake after enqueue")
	}
}

func TestAsyncQueue_DequeueContextCancel(t *testing.T) {
	t.Parallel()

	q := NewAsyncQueue[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAsyncQueue_DrainSync(t *testing.T) {
	t.Parallel()

	q := NewAsyncQueue[int]()
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))
	require.NoError(t, q.Enqueue(3))

	drained := q.DrainSync()
	assert.Equal(t, []int{1, 2, 3}, drained)
	assert.Equal(t, 0, q.Len())

	// Draining an empty queue never blocks.
	assert.Empty(t, q.DrainSync())
}

func TestAsyncQueue_Clear(t *testing.T) {
	t.Parallel()

	q := NewAsyncQueue[int]()
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))

	q.Clear()
	assert.Equal(t, 0, q.Len())
}

func TestAsyncQueue_Close(t *testing.T) {
	t.Parallel()

	q := NewAsyncQueue[int]()
	require.NoError(t, q.Enqueue(1))
	q.Close()

	// Items enqueued before close remain drainable.
	item, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, item)

	// Empty and closed: dequeue fails instead of blocking.
	_, err = q.Dequeue(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.ErrQueueClosed, types.GetErrorCode(err))

	err = q.Enqueue(2)
	require.Error(t, err)
	assert.Equal(t, types.ErrQueueClosed, types.GetErrorCode(err))

	// Close is idempotent.
	q.Close()
}

func TestAsyncQueue_CloseWakesWaiters(t *testing.T) {
	t.Parallel()

	q := NewAsyncQueue[int]()

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		assert.Equal(t, types.ErrQueueClosed, types.GetErrorCode(err))
	case <-time.After(time.Second):
		t.Fatal("close did not wake blocked dequeue")
	}
}

func TestAsyncQueue_ConcurrentProducersConsumers(t *testing.T) {
	t.Parallel()

	q := NewAsyncQueue[int]()
	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Enqueue(base + i)
			}
		}(p * perProducer)
	}

	received := make(map[int]bool)
	var mu sync.Mutex
	var consumers sync.WaitGroup
	ctx := context.Background()
	for c := 0; c < 2; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				item, err := q.Dequeue(ctx)
				if err != nil {
					return
				}
				mu.Lock()
				received[item] = true
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	// Let consumers drain, then close to release them.
	for q.Len() > 0 {
		time.Sleep(time.Millisecond)
	}
	q.Close()
	consumers.Wait()

	assert.Len(t, received, producers*perProducer)
}
