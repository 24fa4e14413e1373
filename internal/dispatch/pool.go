package dispatch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/recipebook-backend/internal/platform/logger"
)

// Task is a unit of background work. It owns its own context; the pool
// never cancels a task once it has been accepted.
type Task func()

// Pool runs tasks off the caller's goroutine. Submit never blocks: when the
// queue is full the task gets a goroutine of its own.
type Pool struct {
	log     *logger.Logger
	workers int
	queue   chan Task

	mu       sync.RWMutex
	closed   bool
	overflow sync.WaitGroup
	group    *errgroup.Group
	onDepth  func(int)
}

type Options struct {
	Workers   int
	QueueSize int
	// OnQueueDepth, when set, is called with the queue length after every
	// enqueue and dequeue.
	OnQueueDepth func(int)
}

func NewPool(opts Options, baseLog *logger.Logger) *Pool {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 0 {
		opts.QueueSize = 0
	}
	if baseLog == nil {
		baseLog = logger.Nop()
	}
	return &Pool{
		log:     baseLog.With("component", "DispatchPool"),
		workers: opts.Workers,
		queue:   make(chan Task, opts.QueueSize),
		onDepth: opts.OnQueueDepth,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.group != nil || p.closed {
		return
	}
	p.log.Info("Starting dispatch pool", "workers", p.workers, "queue", cap(p.queue))
	p.group = &errgroup.Group{}
	for i := 0; i < p.workers; i++ {
		workerID := i + 1
		p.group.Go(func() error {
			p.runLoop(workerID)
			return nil
		})
	}
}

func (p *Pool) runLoop(workerID int) {
	for task := range p.queue {
		p.depth()
		p.run(workerID, task)
	}
	p.log.Debug("Dispatch worker stopped", "worker_id", workerID)
}

func (p *Pool) run(workerID int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Dispatched task panic", "worker_id", workerID, "panic", r)
		}
	}()
	task()
}

// Submit hands task to the pool. It reports false only after Close.
func (p *Pool) Submit(task Task) bool {
	if task == nil {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	if p.group != nil {
		select {
		case p.queue <- task:
			p.depth()
			return true
		default:
		}
	}
	p.overflow.Add(1)
	go func() {
		defer p.overflow.Done()
		p.run(0, task)
	}()
	return true
}

func (p *Pool) depth() {
	if p.onDepth != nil {
		p.onDepth(len(p.queue))
	}
}

// Close stops accepting tasks and waits for queued and running ones, or
// for ctx to end.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	group := p.group
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		if group != nil {
			_ = group.Wait()
		}
		p.overflow.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
