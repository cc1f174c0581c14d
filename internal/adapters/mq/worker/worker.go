// Package worker screens queued applications and places the results on job
// shortlists.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/placement/internal/domain/model"
	"github.com/okian/placement/internal/domain/types"
	"github.com/okian/placement/pkg/logger"
	"github.com/okian/placement/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Screener scores an application's candidate against its job.
type Screener interface {
	Screen(ctx context.Context, app model.Application) (types.Entry, error)
}

// Shortlister stores a screening result on the job's shortlist.
type Shortlister interface {
	Upsert(ctx context.Context, jobID string, e types.Entry) (bool, error)
}

// Queue defines how workers receive applications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Application
}

// InMemoryWorker screens applications one at a time.
type InMemoryWorker struct {
	queue     Queue
	screener  Screener
	shortlist Shortlister
	name      string

	active *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, s Screener, sl Shortlister, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		screener:  s,
		shortlist: sl,
		name:      "worker",
		active:    &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes applications until ctx is done, Shutdown is called or the
// queue is drained after close.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	apps := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case app, ok := <-apps:
			if !ok {
				return
			}
			if err := w.process(ctx, app); err != nil {
				w.logger.Error(ctx, "screening failed",
					logger.String("application_id", app.ApplicationID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown stops the worker and waits for the in-flight application.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, app model.Application) error {
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	entry, err := w.screener.Screen(ctx, app)
	if err != nil {
		metrics.RecordScreeningError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "screening_error")
		return fmt.Errorf("screen application %s: %w", app.ApplicationID, err)
	}
	entry.ApplicationID = app.ApplicationID
	if entry.CandidateID == "" {
		entry.CandidateID = app.CandidateID
	}

	if _, err := w.shortlist.Upsert(ctx, app.JobID, entry); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "shortlist_error")
		return fmt.Errorf("shortlist application %s: %w", app.ApplicationID, err)
	}
	metrics.RecordApplicationScreened()
	w.logger.Debug(ctx, "application screened",
		logger.String("application_id", app.ApplicationID),
		logger.String("job_id", app.JobID),
		logger.Float64("score", entry.Score),
		logger.Bool("eligible", entry.Eligible),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  *atomic.Int64
	logger  logger.Logger
}

// NewPool creates a worker pool. workerCount < 1 picks a CPU-based default.
func NewPool(workerCount int, q Queue, s Screener, sl Shortlister) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		active:  &atomic.Int64{},
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		w := NewInMemoryWorker(q, s, sl, WithName("worker-"+strconv.Itoa(i)))
		w.active = p.active
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches all workers.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not stop: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
