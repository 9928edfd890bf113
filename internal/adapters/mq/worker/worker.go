// Package worker runs queued simulation jobs on a pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/matchday/internal/adapters/mq/queue"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/logger"
	"github.com/okian/matchday/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Simulator plays one match.
type Simulator interface {
	Simulate(ctx context.Context, requesterID, opponentID string, mode model.Mode) (*model.MatchOutcome, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Result is the outcome of one job.
type Result struct {
	Job     queue.Job
	Outcome *model.MatchOutcome
	Err     error
	Latency time.Duration
}

// Sink receives every result. It is called from worker goroutines and must
// be safe for concurrent use.
type Sink func(ctx context.Context, r Result)

// InMemoryWorker pulls jobs off a queue and simulates them.
type InMemoryWorker struct {
	queue Queue
	sim   Simulator
	sink  Sink
	name  string

	shutdown chan struct{}
	once     sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker. A nil sink discards results.
func NewInMemoryWorker(q Queue, sim Simulator, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		sim:      sim,
		sink:     sink,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes jobs until the queue closes, ctx is canceled or Shutdown is called.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j)
		}
	}
}

// Shutdown stops the worker without draining and waits for it to exit.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.once.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, j queue.Job) {
	start := time.Now()
	out, err := w.sim.Simulate(ctx, j.RequesterID, j.OpponentID, j.Mode)
	latency := time.Since(start)
	metrics.RecordWorkerJob(float64(latency.Microseconds())/1000, err)

	if err != nil {
		w.logger.Error(ctx, "simulation job failed",
			logger.String("job_id", j.ID),
			logger.String("requester_id", j.RequesterID),
			logger.Error(err),
		)
	}
	if w.sink != nil {
		w.sink(ctx, Result{Job: j, Outcome: out, Err: err, Latency: latency})
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	wg      sync.WaitGroup
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses NumCPU.
func NewPool(workerCount int, q Queue, sim Simulator, sink Sink, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, sim, sink, wopts...)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	metrics.UpdateWorkersActive(len(p.workers))
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *InMemoryWorker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
	metrics.UpdateWorkersActive(0)
}

// Drain closes the queue and waits for the workers to finish the buffered
// jobs, or for ctx to be done.
func (p *Pool) Drain(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain: %w", ctx.Err())
	}
}

// Shutdown stops every worker without draining.
func (p *Pool) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var firstErr error
	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	metrics.UpdateWorkersActive(0)
	return firstErr
}
