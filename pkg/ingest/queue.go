package ingest

import (
	"context"
	"sync"
	"sync/atomic"

	"postit/pkg/telemetry"
)

// DefaultQueueCapacity matches the default command channel size.
const DefaultQueueCapacity = 100

// Queue is the bounded command channel between request handlers and the
// processor. It is safe for many concurrent producers; exactly one
// Processor consumes it.
type Queue struct {
	ch       chan Command
	capacity int
	dropped  atomic.Uint64

	// mu guards closed and the close of ch against in-flight sends.
	mu        sync.RWMutex
	closed    bool
	stopping  chan struct{}
	closeOnce sync.Once
}

// NewQueue creates a bounded Queue of given capacity (>0).
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		ch:       make(chan Command, capacity),
		capacity: capacity,
		stopping: make(chan struct{}),
	}
}

// Out exposes commands for the consumer (do not close).
func (q *Queue) Out() <-chan Command { return q.ch }

// Enqueue blocks until cmd is enqueued, the queue closes, or ctx is done.
func (q *Queue) Enqueue(ctx context.Context, cmd Command) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return q.reject("closed", ErrQueueClosed)
	}
	select {
	case q.ch <- cmd:
		return nil
	case <-q.stopping:
		return q.reject("closed", ErrQueueClosed)
	case <-ctx.Done():
		return q.reject("canceled", ctx.Err())
	}
}

// TryEnqueue enqueues cmd without blocking; returns ErrQueueFull if full.
func (q *Queue) TryEnqueue(cmd Command) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return q.reject("closed", ErrQueueClosed)
	}
	select {
	case q.ch <- cmd:
		return nil
	default:
		return q.reject("full", ErrQueueFull)
	}
}

func (q *Queue) reject(reason string, err error) error {
	q.dropped.Add(1)
	telemetry.EnqueueFailed(reason)
	return err
}

// Close stops accepting commands and closes the channel so the consumer
// finishes what is buffered and exits. Blocked producers are released with
// ErrQueueClosed. Safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.stopping)
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
	})
}

// CloseAndDrain closes the queue and resolves every buffered command as
// lost. Use it only when no Processor is consuming the queue.
func (q *Queue) CloseAndDrain() {
	q.Close()
	for cmd := range q.ch {
		cmd.drop()
	}
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Len returns the current number of buffered commands.
func (q *Queue) Len() int { return len(q.ch) }

// Cap returns the configured capacity of the queue.
func (q *Queue) Cap() int { return q.capacity }

// Dropped returns the number of commands rejected at enqueue time.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
