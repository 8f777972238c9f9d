// Package jobs provides the in-process queue backing asynchronous export
// generation. Jobs are buffered on a channel and drained by a fixed pool of
// workers; a failed job is redelivered after a delay until its retry budget
// runs out. The queue survives nothing: persisted job state is the caller's
// responsibility.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of background work. Attempt counts prior deliveries.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler consumes one job. A non-nil error triggers redelivery.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (c *QueueConfig) fill() {
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.BufferSize <= 0 {
		c.BufferSize = c.Workers * 8
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Queue dispatches jobs to a pool of worker goroutines.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	pending chan Job

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue builds a queue. It does not consume until Start is called.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg.fill()
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		pending: make(chan Job, cfg.BufferSize),
	}
}

// Start launches the worker pool. Subsequent calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.drain(i + 1)
	}
	q.cfg.Logger.Sugar().Infow("queue started", "queue", q.name, "workers", q.cfg.Workers, "buffer", q.cfg.BufferSize)
}

// Stop cancels the pool and blocks until every worker has returned. Jobs
// still buffered are dropped; recovery on restart re-enqueues them from
// persisted state.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.cancel == nil {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.cfg.Logger.Sugar().Infow("queue stopped", "queue", q.name)
}

// Enqueue hands a job to the pool without blocking. A full buffer is an
// error so callers can mark the persisted job failed instead of stalling
// the request.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	q.mu.Unlock()
	if ctx == nil {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.pending <- job:
		return nil
	default:
		return fmt.Errorf("queue %s full (%d buffered)", q.name, q.cfg.BufferSize)
	}
}

func (q *Queue) drain(id int) {
	defer q.wg.Done()
	log := q.cfg.Logger.Sugar().With("queue", q.name, "worker", id)
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.pending:
			if err := q.handler(q.ctx, job); err != nil {
				q.redeliver(job, err)
			} else if job.Attempt > 0 {
				log.Infow("job recovered after retry", "job_id", job.ID, "attempt", job.Attempt)
			}
		}
	}
}

func (q *Queue) redeliver(job Job, cause error) {
	job.Attempt++
	log := q.cfg.Logger.Sugar().With("queue", q.name, "job_id", job.ID, "type", job.Type)
	if job.Attempt > q.cfg.MaxRetries {
		log.Errorw("job dropped, retry budget exhausted", "attempts", job.Attempt, "error", cause)
		return
	}
	log.Warnw("job failed, scheduling redelivery", "attempt", job.Attempt, "error", cause)

	time.AfterFunc(q.cfg.RetryDelay, func() {
		select {
		case <-q.ctx.Done():
		default:
			if err := q.Enqueue(job); err != nil {
				log.Errorw("redelivery failed", "error", err)
			}
		}
	})
}
