package workflow

import (
	"context"
	"sync"

	"github.com/Casys-AI/flowgrid/types"
)

// AsyncQueue is a concurrency-safe FIFO mailbox. Enqueue never blocks;
// Dequeue waits until an item arrives, the context is cancelled, or the
// queue is closed.
type AsyncQueue[T any] struct {
	mu     sync.Mutex
	items  []T
	notify chan struct{}
	closed bool
}

// NewAsyncQueue creates an empty queue.
func NewAsyncQueue[T any]() *AsyncQueue[T] {
	return &AsyncQueue[T]{
		notify: make(chan struct{}),
	}
}

// Enqueue appends an item and wakes any waiting consumers.
func (q *AsyncQueue[T]) Enqueue(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return types.NewError(types.ErrQueueClosed, "enqueue on closed queue")
	}

	q.items = append(q.items, item)
	// Wake all waiters; each re-checks under the lock.
	close(q.notify)
	q.notify = make(chan struct{})
	return nil
}

// Dequeue removes and returns the oldest item, waiting if the queue is
// empty. Items are returned in exact enqueue order.
func (q *AsyncQueue[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return item, nil
		}
		if q.closed {
			q.mu.Unlock()
			return zero, types.NewError(types.ErrQueueClosed, "dequeue on closed queue")
		}
		wait := q.notify
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-wait:
		}
	}
}

// DrainSync returns and clears everything already queued, without waiting
// for future items. It never blocks.
func (q *AsyncQueue[T]) DrainSync() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.items
	q.items = nil
	return drained
}

// Clear discards all queued items.
func (q *AsyncQueue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}

// Len returns the number of queued items.
func (q *AsyncQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close closes the queue. Pending and future Dequeue calls fail with
// QUEUE_CLOSED once the queue is empty.
func (q *AsyncQueue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.notify)
	q.notify = make(chan struct{})
}
