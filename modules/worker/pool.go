// Package worker provides a worker pool for processing background jobs.
package worker

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/shop-monolith/domain/job"
	"github.com/example/shop-monolith/modules/queue"
	"github.com/go-monolith/mono/pkg/types"
)

// PoolConfig holds worker pool configuration.
type PoolConfig struct {
	NumWorkers     int
	MaxAttempts    int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration
	ProcessTimeout time.Duration
}

// DefaultPoolConfig returns the default pool configuration.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		NumWorkers:     5,
		MaxAttempts:    3,
		BaseRetryDelay: 2 * time.Second,
		MaxRetryDelay:  time.Minute,
		ProcessTimeout: 30 * time.Second,
	}
}

// Source delivers jobs to the pool.
type Source interface {
	Subscribe(ctx context.Context) (<-chan *queue.Delivery, error)
}

// DeadLetterPublisher records jobs that will not be retried.
type DeadLetterPublisher interface {
	PublishDeadLetter(ctx context.Context, dl *job.DeadLetter) error
}

// Stats is a snapshot of the pool counters.
type Stats struct {
	Processed    uint64 `json:"processed"`
	Succeeded    uint64 `json:"succeeded"`
	Retried      uint64 `json:"retried"`
	DeadLettered uint64 `json:"dead_lettered"`
}

// Pool manages a pool of workers for processing jobs.
type Pool struct {
	config      PoolConfig
	source      Source
	deadLetters DeadLetterPublisher
	processor   *Processor
	logger      types.Logger

	processed    atomic.Uint64
	succeeded    atomic.Uint64
	retried      atomic.Uint64
	deadLettered atomic.Uint64

	wg      sync.WaitGroup
	cancel  context.CancelFunc
	mu      sync.RWMutex
	running bool
}

// NewPool creates a new worker pool.
func NewPool(cfg PoolConfig, source Source, deadLetters DeadLetterPublisher, processor *Processor, logger types.Logger) *Pool {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	return &Pool{
		config:      cfg,
		source:      source,
		deadLetters: deadLetters,
		processor:   processor,
		logger:      logger,
	}
}

// Start subscribes to the source and starts the workers. The pool keeps
// running after ctx is done; call Stop to shut it down.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("pool is already running")
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	deliveries, err := p.source.Subscribe(runCtx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to subscribe to jobs: %w", err)
	}

	p.cancel = cancel
	p.running = true

	for i := 0; i < p.config.NumWorkers; i++ {
		w := &worker{id: fmt.Sprintf("worker-%d", i+1), pool: p}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.run(runCtx, deliveries)
		}()
	}

	p.logger.Info("Worker pool started", "workers", p.config.NumWorkers, "max_attempts", p.config.MaxAttempts)
	return nil
}

// Stop stops accepting jobs and waits for in-flight jobs to finish or for
// ctx to expire.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("All workers stopped gracefully")
		return nil
	case <-ctx.Done():
		p.logger.Warn("Timeout waiting for workers to stop")
		return ctx.Err()
	}
}

// IsRunning returns true if the pool is running.
func (p *Pool) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Processed:    p.processed.Load(),
		Succeeded:    p.succeeded.Load(),
		Retried:      p.retried.Load(),
		DeadLettered: p.deadLettered.Load(),
	}
}

// retryDelay returns base*2^(attempt-1), capped at the max delay.
func (p *Pool) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.config.BaseRetryDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.config.MaxRetryDelay) {
		return p.config.MaxRetryDelay
	}
	return time.Duration(delay)
}

type worker struct {
	id   string
	pool *Pool
}

func (w *worker) run(ctx context.Context, deliveries <-chan *queue.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(ctx, d)
		}
	}
}

// handle processes one delivery and reports how it was settled. The job runs
// to completion even if the pool is stopping, bounded by the process timeout.
func (w *worker) handle(ctx context.Context, d *queue.Delivery) job.Status {
	p := w.pool
	j := d.Job
	p.processed.Add(1)
	if err := d.InProgress(); err != nil {
		p.logger.Warn("Error extending ack deadline", "worker", w.id, "job_id", j.ID, "error", err)
	}

	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.ProcessTimeout)
	defer cancel()

	start := time.Now()
	err := p.processor.Process(jobCtx, j)
	if err == nil {
		if ackErr := d.Ack(); ackErr != nil {
			p.logger.Warn("Error acknowledging message", "worker", w.id, "job_id", j.ID, "error", ackErr)
		}
		p.succeeded.Add(1)
		p.logger.Info("Job completed", "worker", w.id, "job_id", j.ID, "type", j.Type,
			"attempt", d.Attempt, "status", job.StatusCompleted, "duration", time.Since(start).String())
		return job.StatusCompleted
	}

	if errors.Is(err, ErrPermanent) || d.Attempt >= p.config.MaxAttempts {
		w.deadLetter(jobCtx, d, err)
		return job.StatusDeadLetter
	}

	delay := p.retryDelay(d.Attempt)
	if nakErr := d.NakWithDelay(delay); nakErr != nil {
		p.logger.Warn("Error NAK with delay", "worker", w.id, "job_id", j.ID, "error", nakErr)
	}
	p.retried.Add(1)
	p.logger.Warn("Job failed, will retry", "worker", w.id, "job_id", j.ID,
		"attempt", d.Attempt, "max_attempts", p.config.MaxAttempts, "status", job.StatusRetrying,
		"retry_in", delay.String(), "error", err)
	return job.StatusRetrying
}

func (w *worker) deadLetter(ctx context.Context, d *queue.Delivery, cause error) {
	p := w.pool
	dl := &job.DeadLetter{
		Job:      d.Job,
		Reason:   cause.Error(),
		Attempts: d.Attempt,
		FailedAt: time.Now().UTC(),
	}

	if err := p.deadLetters.PublishDeadLetter(ctx, dl); err != nil {
		p.logger.Error("Error publishing to dead-letter queue", "worker", w.id, "job_id", d.Job.ID, "error", err)
	}
	if err := d.Term(); err != nil {
		p.logger.Warn("Error terminating message", "worker", w.id, "job_id", d.Job.ID, "error", err)
	}
	p.deadLettered.Add(1)
	p.logger.Error("Job moved to dead-letter queue", "worker", w.id, "job_id", d.Job.ID,
		"attempts", d.Attempt, "status", job.StatusDeadLetter, "reason", dl.Reason)
}
