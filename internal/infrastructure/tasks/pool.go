package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/DanielPopoola/jmw-payments/internal/application"
	"github.com/DanielPopoola/jmw-payments/internal/metrics"
)

var (
	ErrQueueFull  = errors.New("task queue is full")
	ErrPoolClosed = errors.New("task pool is closed")
)

// Pool is an in-process application.TaskSink backed by a bounded queue and
// a fixed number of workers. Enqueue never blocks.
type Pool struct {
	handler Handler
	workers int
	queue   chan application.Task
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewPool(handler Handler, workers, queueSize int, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		handler: handler,
		workers: workers,
		queue:   make(chan application.Task, queueSize),
		logger:  logger,
	}
}

func (p *Pool) Enqueue(_ context.Context, task application.Task) error {
	err := p.enqueue(task)
	metrics.RecordTaskEnqueued("memory", string(task.Kind), err)
	return err
}

func (p *Pool) enqueue(task application.Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.queue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. Tasks run under ctx; cancelling it aborts
// in-flight sends but Shutdown still drains the queue.
func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("starting task pool", "workers", p.workers, "queue_size", cap(p.queue))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()
	for task := range p.queue {
		if err := p.handler.Execute(ctx, task); err != nil {
			p.logger.Error("task failed",
				"worker", id,
				"task_id", task.ID,
				"kind", task.Kind,
				"error", err)
		}
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish or
// for ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("task pool drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
