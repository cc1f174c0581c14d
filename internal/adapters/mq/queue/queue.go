// Package queue buffers submitted applications until a worker screens them.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Application is the payload flowing through the queue.
type Application = model.Application

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an application. It never blocks: a full queue returns
	// ErrQueueFull and a closed one ErrClosed.
	Enqueue(ctx context.Context, a Application) error

	// Dequeue returns a channel of pending applications. It is closed once
	// the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Application

	// Len returns the current number of pending applications.
	Len(ctx context.Context) int

	// Capacity returns the configured bound.
	Capacity() int

	// Close stops accepting applications. Pending ones can still be dequeued.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Application
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Application, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Enqueue adds an application to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, a Application) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue %s: %w", a.ApplicationID, err)
	}

	select {
	case q.items <- a:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrQueueFull
	}
}

// Dequeue returns a channel that receives applications as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Application {
	out := make(chan Application)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case a, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- a:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of pending applications.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.items)
}

// Capacity returns the queue bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting applications. Safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
