package store

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// Module exposes the shared connection to the mono lifecycle so it is
// health-checked and closed after every module that uses it.
type Module struct {
	db     *gorm.DB
	driver string
	logger types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new store module around an open connection.
func NewModule(db *gorm.DB, driver string, logger types.Logger) *Module {
	return &Module{
		db:     db,
		driver: driver,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// DB returns the shared connection.
func (m *Module) DB() *gorm.DB {
	return m.db
}

// Start verifies the connection is usable.
func (m *Module) Start(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	m.logger.Info("Store module started", "driver", m.driver)
	return nil
}

// Stop closes the connection.
func (m *Module) Stop(_ context.Context) error {
	sqlDB, err := m.db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			m.logger.Error("Failed to close database", "error", err)
		}
	}
	m.logger.Info("Store module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	stats := sqlDB.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver":           m.driver,
			"open_connections": stats.OpenConnections,
		},
	}
}
