package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Common errors returned by the Pool
var (
	ErrPoolStopped = errors.New("task pool is stopped")
	ErrQueueFull   = errors.New("task queue is full")
)

// PoolConfig holds configuration options for the pool
type PoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines run.
	// If zero or negative, defaults to 2.
	WorkerCount int

	// QueueSize is the submission buffer size. If zero or negative,
	// defaults to 32.
	QueueSize int
}

// DefaultPoolConfig returns a PoolConfig with reasonable defaults
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		WorkerCount: 2,
		QueueSize:   32,
	}
}

type submission struct {
	unit   Unit
	handle *Handle
}

// Pool runs units on a bounded set of worker goroutines. Submission is
// non-blocking: a full queue rejects immediately with ErrQueueFull
// rather than applying backpressure to the caller.
type Pool struct {
	queue       chan submission
	workerCount int

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu      sync.Mutex
	stopped bool
}

// NewPool creates a pool with the specified configuration. Workers do
// not run until Start is called.
func NewPool(config PoolConfig, logger *slog.Logger) *Pool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 2
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", workerCount)
	}
	queueSize := config.QueueSize
	if queueSize <= 0 {
		queueSize = 32
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		queue:       make(chan submission, queueSize),
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("task pool started",
		"worker_count", p.workerCount,
		"queue_cap", cap(p.queue))
}

// Submit enqueues a unit for execution and returns its Handle. The
// caller is free to ignore the handle. Returns ErrQueueFull when the
// buffer is at capacity and ErrPoolStopped after Stop.
func (p *Pool) Submit(u Unit) (*Handle, error) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil, ErrPoolStopped
	}

	h := newHandle(u.ID())
	select {
	case p.queue <- submission{unit: u, handle: h}:
		p.mu.Unlock()
		p.logger.Debug("unit enqueued",
			"unit_id", u.ID(),
			"unit_kind", u.Kind(),
			"queue_len", len(p.queue),
			"queue_cap", cap(p.queue))
		return h, nil
	default:
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(p.queue))
	}
}

// Stop closes the pool. Queued units that have not started receive a
// canceled fault without executing; Stop returns once all workers have
// exited. In-flight units observe ctx cancellation through their
// Execute context.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.queue)
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
	p.logger.Info("task pool stopped")
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	log := p.logger.With("worker_id", id)
	log.Debug("worker started")

	for sub := range p.queue {
		if p.ctx.Err() != nil {
			sub.handle.finish(Outcome{Fault: &Fault{
				Kind:    FaultCanceled,
				Message: "pool stopped before unit started",
			}})
			continue
		}
		p.run(sub, log)
	}

	log.Debug("worker exiting")
}

// run executes a single unit, converting its return or panic into the
// handle's one terminal outcome.
func (p *Pool) run(sub submission, log *slog.Logger) {
	u, h := sub.unit, sub.handle

	log = log.With("unit_id", u.ID(), "unit_kind", u.Kind())
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			trace := string(debug.Stack())
			log.Error("unit panicked",
				"panic", r,
				"stack", trace)
			h.finish(Outcome{Fault: &Fault{
				Kind:    FaultPanic,
				Message: fmt.Sprintf("panic: %v", r),
				Trace:   trace,
			}})
		}
	}()

	h.markStarted()
	log.Debug("unit started")

	value, err := u.Execute(p.ctx, h.report)
	if err != nil {
		log.Warn("unit failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		h.finish(Outcome{Fault: FaultFromError(err)})
		return
	}

	log.Debug("unit completed",
		"duration_ms", time.Since(start).Milliseconds())
	h.finish(Outcome{Value: value})
}
