package worker

import (
	"context"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// WorkerModule runs the job pool as a mono module.
type WorkerModule struct {
	pool   *Pool
	logger types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*WorkerModule)(nil)
var _ mono.HealthCheckableModule = (*WorkerModule)(nil)

// NewModule creates a new WorkerModule. The source must be connected before
// Start is called.
func NewModule(cfg PoolConfig, source Source, deadLetters DeadLetterPublisher, processor *Processor, logger types.Logger) *WorkerModule {
	return &WorkerModule{
		pool:   NewPool(cfg, source, deadLetters, processor, logger),
		logger: logger,
	}
}

// Name returns the module name.
func (m *WorkerModule) Name() string {
	return "worker"
}

// Start starts the worker pool.
func (m *WorkerModule) Start(ctx context.Context) error {
	if err := m.pool.Start(ctx); err != nil {
		return err
	}
	m.logger.Info("Worker module started")
	return nil
}

// Stop stops the worker pool gracefully.
func (m *WorkerModule) Stop(ctx context.Context) error {
	if err := m.pool.Stop(ctx); err != nil {
		return err
	}
	m.logger.Info("Worker module stopped")
	return nil
}

// Health reports whether the pool is running along with its counters.
func (m *WorkerModule) Health(_ context.Context) mono.HealthStatus {
	stats := m.pool.Stats()
	details := map[string]any{
		"workers":       m.pool.config.NumWorkers,
		"processed":     stats.Processed,
		"succeeded":     stats.Succeeded,
		"retried":       stats.Retried,
		"dead_lettered": stats.DeadLettered,
	}
	if !m.pool.IsRunning() {
		return mono.HealthStatus{Healthy: false, Message: "pool not running", Details: details}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
}
