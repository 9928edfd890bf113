// Package queue buffers simulation jobs for the batch worker pool.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Job asks for one match to be simulated.
type Job struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requester_id"`
	OpponentID  string     `json:"opponent_id,omitempty"`
	Mode        model.Mode `json:"mode"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue stamps and buffers a job, returning its id. It fails with
	// ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, j Job) (string, error)

	// Dequeue returns a channel of jobs that is closed once the queue is
	// closed and drained.
	Dequeue(ctx context.Context) <-chan Job

	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateJobQueue(0, q.capacity)
	return q
}

// Enqueue adds a job to the queue. Jobs without an id get a fresh UUID.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordJobRejected()
		return "", ErrClosed
	}
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	j.EnqueuedAt = q.now()

	select {
	case q.jobs <- j:
		metrics.RecordJobEnqueued()
		metrics.UpdateJobQueue(len(q.jobs), q.capacity)
		return j.ID, nil
	case <-ctx.Done():
		metrics.RecordJobRejected()
		return "", ctx.Err()
	default:
		metrics.RecordJobRejected()
		return "", fmt.Errorf("%w: %d jobs buffered", ErrFull, q.capacity)
	}
}

// Dequeue forwards jobs until the queue is closed or ctx is done.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.UpdateJobQueue(len(q.jobs), q.capacity)
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of buffered jobs.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Close stops accepting jobs. Buffered jobs are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed reports whether Close has been called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
