package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/shop-monolith/domain/apperr"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CacheConfig configures the optional Redis product cache.
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// CatalogModule exposes product services to the rest of the application.
type CatalogModule struct {
	cacheConfig CacheConfig
	redis       *redis.Client
	cache       *RedisCache
	service     *Service
	logger      types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*CatalogModule)(nil)
var _ mono.ServiceProviderModule = (*CatalogModule)(nil)
var _ mono.HealthCheckableModule = (*CatalogModule)(nil)

// NewModule creates a new CatalogModule. Caching is disabled when
// cacheConfig.Addr is empty.
func NewModule(db *gorm.DB, cacheConfig CacheConfig, logger types.Logger) *CatalogModule {
	m := &CatalogModule{
		cacheConfig: cacheConfig,
		logger:      logger,
	}

	var c Cache = NopCache{}
	if cacheConfig.Addr != "" {
		m.redis = redis.NewClient(&redis.Options{
			Addr:     cacheConfig.Addr,
			Password: cacheConfig.Password,
			DB:       cacheConfig.DB,
		})
		m.cache = NewRedisCache(m.redis, cacheConfig.Prefix, cacheConfig.TTL)
		c = m.cache
	}

	m.service = NewService(NewRepository(db), c, logger)
	return m
}

// Name returns the module name.
func (m *CatalogModule) Name() string {
	return "catalog"
}

// Start verifies the cache connection when one is configured.
func (m *CatalogModule) Start(ctx context.Context) error {
	if m.cache != nil {
		if err := m.cache.Ping(ctx); err != nil {
			// Reads fall through to the database while Redis is down.
			m.logger.Warn("Product cache unreachable", "addr", m.cacheConfig.Addr, "error", err)
		}
	}
	m.logger.Info("Catalog module started", "cache_enabled", m.cache != nil)
	return nil
}

// Stop shuts down the module.
func (m *CatalogModule) Stop(_ context.Context) error {
	if m.redis != nil {
		if err := m.redis.Close(); err != nil {
			return fmt.Errorf("failed to close redis client: %w", err)
		}
	}
	m.logger.Info("Catalog module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *CatalogModule) Health(ctx context.Context) mono.HealthStatus {
	if m.cache == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "operational",
			Details: map[string]any{"cache": "disabled"},
		}
	}

	stats := m.cache.GetStats()
	details := map[string]any{
		"cache":        "redis",
		"cache_hits":   stats.Hits,
		"cache_misses": stats.Misses,
	}
	if err := m.cache.Ping(ctx); err != nil {
		details["cache_error"] = err.Error()
		return mono.HealthStatus{
			Healthy: true,
			Message: "degraded: cache unavailable",
			Details: details,
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: details,
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *CatalogModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "create-product", json.Unmarshal, json.Marshal, m.handleCreate,
	); err != nil {
		return fmt.Errorf("failed to register create-product service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "list-products", json.Unmarshal, json.Marshal, m.handleList,
	); err != nil {
		return fmt.Errorf("failed to register list-products service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-product", json.Unmarshal, json.Marshal, m.handleGet,
	); err != nil {
		return fmt.Errorf("failed to register get-product service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "delete-product", json.Unmarshal, json.Marshal, m.handleDelete,
	); err != nil {
		return fmt.Errorf("failed to register delete-product service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "set-product-status", json.Unmarshal, json.Marshal, m.handleSetStatus,
	); err != nil {
		return fmt.Errorf("failed to register set-product-status service: %w", err)
	}

	m.logger.Info("Registered services",
		"services", "create-product, list-products, get-product, delete-product, set-product-status")
	return nil
}

func (m *CatalogModule) handleCreate(ctx context.Context, req CreateProductRequest, _ *mono.Msg) (ProductResponse, error) {
	p, err := m.service.Create(ctx, req.CreateRequest)
	if err != nil {
		return ProductResponse{}, m.replyError("create-product", err)
	}
	return ProductResponse{Product: *p}, nil
}

func (m *CatalogModule) handleList(ctx context.Context, _ ListProductsRequest, _ *mono.Msg) (ListProductsResponse, error) {
	products, err := m.service.ListPublished(ctx)
	if err != nil {
		return ListProductsResponse{}, m.replyError("list-products", err)
	}
	return ListProductsResponse{Products: products}, nil
}

func (m *CatalogModule) handleGet(ctx context.Context, req ProductIDRequest, _ *mono.Msg) (ProductResponse, error) {
	p, err := m.service.Get(ctx, req.ID)
	if err != nil {
		return ProductResponse{}, m.replyError("get-product", err)
	}
	return ProductResponse{Product: *p}, nil
}

func (m *CatalogModule) handleDelete(ctx context.Context, req ProductIDRequest, _ *mono.Msg) (ProductResponse, error) {
	p, err := m.service.Delete(ctx, req.ID)
	if err != nil {
		return ProductResponse{}, m.replyError("delete-product", err)
	}
	return ProductResponse{Product: *p}, nil
}

func (m *CatalogModule) handleSetStatus(ctx context.Context, req SetStatusRequest, _ *mono.Msg) (ProductResponse, error) {
	p, err := m.service.SetPublished(ctx, req.ID, req.Status)
	if err != nil {
		return ProductResponse{}, m.replyError("set-product-status", err)
	}
	return ProductResponse{Product: *p}, nil
}

func (m *CatalogModule) replyError(service string, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err)
	}
	if appErr.Kind == apperr.KindInternal {
		m.logger.Error("Service failed", "service", service, "error", err)
	}
	return apperr.New(appErr.Kind, appErr.Message)
}
