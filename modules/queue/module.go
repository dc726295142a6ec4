package queue

import (
	"context"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
)

// QueueModule owns the JetStream client for the rest of the application.
type QueueModule struct {
	client *Client
	logger types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*QueueModule)(nil)
var _ mono.HealthCheckableModule = (*QueueModule)(nil)

// NewModule creates a new QueueModule.
func NewModule(cfg Config, logger types.Logger) *QueueModule {
	return &QueueModule{
		client: NewClient(cfg, logger),
		logger: logger,
	}
}

// Name returns the module name.
func (m *QueueModule) Name() string {
	return "queue"
}

// Start connects to NATS and prepares the stream and consumer.
func (m *QueueModule) Start(ctx context.Context) error {
	if err := m.client.Connect(ctx); err != nil {
		return err
	}
	m.logger.Info("Queue module started")
	return nil
}

// Stop closes the NATS connection.
func (m *QueueModule) Stop(_ context.Context) error {
	if err := m.client.Close(); err != nil {
		return err
	}
	m.logger.Info("Queue module stopped")
	return nil
}

// Client returns the JetStream client.
func (m *QueueModule) Client() *Client {
	return m.client
}

// Health reports the connection state and queue depth.
func (m *QueueModule) Health(ctx context.Context) mono.HealthStatus {
	if !m.client.IsConnected() {
		return mono.HealthStatus{
			Healthy: false,
			Message: "nats not connected",
		}
	}

	details := map[string]any{}
	if info, err := m.client.StreamInfo(ctx); err == nil {
		details["stream_messages"] = info.State.Msgs
	}
	if info, err := m.client.ConsumerInfo(ctx); err == nil {
		details["pending"] = info.NumPending
		details["in_flight"] = info.NumAckPending
		details["redelivered"] = info.NumRedelivered
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}
