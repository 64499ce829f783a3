package core

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrPoolStopped is returned by Submit after the pool has been stopped or
// its context cancelled.
var ErrPoolStopped = errors.New("worker pool stopped")

// WorkerPool runs queued tasks on a fixed set of goroutines. Host
// normalization is a pure function of (schema, bundle), so the fleet
// runner uses one task per host with no locking inside the core.
type WorkerPool struct {
	workers int
	taskCh  chan func()
	wg      sync.WaitGroup
	logger  *zap.SugaredLogger
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.Mutex
	running bool
}

// NewWorkerPool creates a pool with the given worker count and queue size.
// Workers do not start until Start is called; cancelling parentCtx stops
// them.
func NewWorkerPool(parentCtx context.Context, workers, queueSize int, logger *zap.SugaredLogger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(parentCtx)
	return &WorkerPool{
		workers: workers,
		taskCh:  make(chan func(), queueSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines. Safe to call once.
func (p *WorkerPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskCh:
			if !ok {
				return
			}
			p.run(id, task)
		}
	}
}

// run executes one task, recovering panics so a single bad host cannot
// take down the fleet run.
func (p *WorkerPool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorw("worker recovered from panic", "worker", id, "panic", r)
		}
	}()
	task()
}

// Submit queues a task, blocking while the queue is full. Returns
// ErrPoolStopped if the pool context is cancelled.
func (p *WorkerPool) Submit(task func()) error {
	select {
	case <-p.ctx.Done():
		return ErrPoolStopped
	case p.taskCh <- task:
		return nil
	}
}

// Drain closes the queue and waits for in-flight and queued tasks to
// finish.
func (p *WorkerPool) Drain() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	close(p.taskCh)
	p.wg.Wait()
	p.cancel()
}

// Stop cancels outstanding work and waits for workers to exit.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}
