package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

type job struct {
	id     uuid.UUID
	name   string
	ctx    context.Context
	task   Task
	result chan error
}

// WriteQueue runs tasks on a fixed worker pool; with one worker (the default) every
// read-compute-write sequence is serialised.
type WriteQueue struct {
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*WriteQueue)

func WithWorkers(n int) Option {
	return func(q *WriteQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *WriteQueue) {
		if n > 0 {
			q.ch = make(chan job, n)
		}
	}
}
func WithTaskTimeout(d time.Duration) Option {
	return func(q *WriteQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewWriteQueue(logger *slog.Logger, opts ...Option) *WriteQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WriteQueue{
		logger:  logger,
		workers: 1,
		timeout: 30 * time.Second,
		ch:      make(chan job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *WriteQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for j := range q.ch {
					j.result <- q.run(workerID, j)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *WriteQueue) run(workerID int, j job) (err error) {
	if err := j.ctx.Err(); err != nil {
		q.logger.Warn("queue.task.skipped", "worker_id", workerID, "task", j.name, "task_id", j.id, "error", err)
		return err
	}
	ctx, cancel := context.WithTimeout(j.ctx, q.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", j.name, r)
			q.logger.Error("queue.task.panic", "worker_id", workerID, "task", j.name, "task_id", j.id, "recovered", r)
		}
	}()

	start := time.Now()
	err = j.task(ctx)
	if err != nil {
		q.logger.Error("queue.task.failed", "worker_id", workerID, "task", j.name, "task_id", j.id, "error", err)
	} else {
		q.logger.Debug("queue.task.ok", "worker_id", workerID, "task", j.name, "task_id", j.id,
			"elapsed_ms", time.Since(start).Milliseconds())
	}
	return err
}

// Do enqueues task and waits for its result. When ctx ends first the task may still run.
func (q *WriteQueue) Do(ctx context.Context, name string, task Task) error {
	j := job{id: uuid.New(), name: name, ctx: ctx, task: task, result: make(chan error, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "task", name)
		return ErrClosed
	}
	select {
	case q.ch <- j:
	default:
		q.logger.Warn("queue full, applying backpressure", "task", name)
		select {
		case q.ch <- j:
		case <-ctx.Done():
			q.mu.Unlock()
			return ctx.Err()
		}
	}
	q.mu.Unlock()

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *WriteQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
