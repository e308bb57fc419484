package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Queue classifies paths on a pool of workers and hands each Result to a
// callback. Used by watch mode, where files arrive one by one.
type Queue struct {
	batch    *Batch
	onResult func(Result)
	logger   *slog.Logger
	workers  int
	timeout  time.Duration

	ch   chan string
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type QueueOption func(*Queue)

func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan string, n)
		}
	}
}

func WithFileTimeout(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// NewQueue starts the workers. onResult may be called concurrently.
func NewQueue(b *Batch, onResult func(Result), logger *slog.Logger, opts ...QueueOption) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	if onResult == nil {
		onResult = func(Result) {}
	}
	q := &Queue{
		batch:    b,
		onResult: onResult,
		logger:   logger,
		workers:  1,
		timeout:  3 * time.Minute,
		ch:       make(chan string, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("ingest.queue.worker_started", "worker_id", workerID)
				for path := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					r := q.batch.ClassifyFile(ctx, path)
					cancel()
					q.onResult(r)
				}
				q.logger.Debug("ingest.queue.worker_stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue blocks while the queue is full.
func (q *Queue) Enqueue(ctx context.Context, path string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- path:
		return nil
	default:
	}
	q.logger.Warn("ingest.queue.full", "path", path)
	select {
	case q.ch <- path:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting paths and waits for queued ones to finish, or
// for ctx to end.
func (q *Queue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("ingest.queue.shutdown_interrupted")
	case <-done:
		q.logger.Info("ingest.queue.drained")
	}
}
