package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/placement/internal/domain/model"
)

func app(id string) model.Application {
	return model.Application{ApplicationID: id, CandidateID: "c-" + id, JobID: "j1", TS: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if err := q.Enqueue(ctx, app("a1")); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ApplicationID != "a1" {
		t.Errorf("expected a1, got %v", got.ApplicationID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
	_ = q.Enqueue(ctx, app("a1"))
	_ = q.Enqueue(ctx, app("a2"))

	if err := q.Enqueue(ctx, app("a3")); !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected ErrQueueFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	_ = q.Enqueue(ctx, app("a1"))
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Enqueue(ctx, app("a2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Pending work drains before the channel closes.
	var ids []string
	for a := range q.Dequeue(ctx) {
		ids = append(ids, a.ApplicationID)
	}
	if len(ids) != 1 || ids[0] != "a1" {
		t.Errorf("expected [a1], got %v", ids)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, app("a1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	select {
	case _, ok := <-q.Dequeue(ctx):
		if ok {
			t.Error("expected no application from a cancelled dequeue")
		}
	case <-time.After(time.Second):
		t.Fatal("dequeue channel did not close after cancellation")
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	const producers = 10
	const perProducer = 100
	q := NewInMemoryQueue(WithCapacity(producers * perProducer))
	ctx := context.Background()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Enqueue(ctx, app(fmt.Sprintf("p%d-%d", p, i))); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		}(p)
	}
	wg.Wait()
	_ = q.Close()

	seen := make(map[string]struct{})
	for a := range q.Dequeue(ctx) {
		seen[a.ApplicationID] = struct{}{}
	}
	if len(seen) != producers*perProducer {
		t.Errorf("expected %d applications, got %d", producers*perProducer, len(seen))
	}
}
