package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/shop-monolith/domain/apperr"
	"github.com/example/shop-monolith/modules/auth"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// CartModule provides cart and checkout services.
type CartModule struct {
	db       *gorm.DB
	repo     *Repository
	service  *Service
	checkout *Checkout
	enqueuer Enqueuer
	logger   types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*CartModule)(nil)
var _ mono.ServiceProviderModule = (*CartModule)(nil)
var _ mono.DependentModule = (*CartModule)(nil)
var _ mono.HealthCheckableModule = (*CartModule)(nil)

// NewModule creates a new CartModule. Order confirmations are queued through
// enqueuer.
func NewModule(db *gorm.DB, enqueuer Enqueuer, logger types.Logger) *CartModule {
	repo := NewRepository(db)
	return &CartModule{
		db:       db,
		repo:     repo,
		service:  NewService(repo, logger),
		enqueuer: enqueuer,
		logger:   logger,
	}
}

// Name returns the module name.
func (m *CartModule) Name() string {
	return "cart"
}

// Dependencies returns the list of module dependencies.
func (m *CartModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *CartModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.checkout = NewCheckout(m.repo, auth.NewAuthAdapter(container), m.enqueuer, m.logger)
	}
}

// Start starts the module.
func (m *CartModule) Start(_ context.Context) error {
	if m.checkout == nil {
		return fmt.Errorf("auth dependency not set")
	}
	m.logger.Info("Cart module started")
	return nil
}

// Stop shuts down the module.
func (m *CartModule) Stop(_ context.Context) error {
	m.logger.Info("Cart module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *CartModule) Health(ctx context.Context) mono.HealthStatus {
	var carts int64
	if err := m.db.WithContext(ctx).Table("carts").Count(&carts).Error; err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("cart table unavailable: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{"open_carts": carts},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *CartModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "add-to-cart", json.Unmarshal, json.Marshal, m.handleAddToCart,
	); err != nil {
		return fmt.Errorf("failed to register add-to-cart service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "get-cart", json.Unmarshal, json.Marshal, m.handleGetCart,
	); err != nil {
		return fmt.Errorf("failed to register get-cart service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "checkout", json.Unmarshal, json.Marshal, m.handleCheckout,
	); err != nil {
		return fmt.Errorf("failed to register checkout service: %w", err)
	}

	m.logger.Info("Registered services", "services", "add-to-cart, get-cart, checkout")
	return nil
}

func (m *CartModule) handleAddToCart(ctx context.Context, req AddToCartRequest, _ *mono.Msg) (CartResponse, error) {
	c, err := m.service.AddToCart(ctx, req.UserID, req.ProductID, req.Quantity)
	if err != nil {
		return CartResponse{}, m.replyError("add-to-cart", err)
	}
	return CartResponse{Cart: *c}, nil
}

func (m *CartModule) handleGetCart(ctx context.Context, req GetCartRequest, _ *mono.Msg) (CartResponse, error) {
	c, err := m.service.GetCart(ctx, req.UserID)
	if err != nil {
		return CartResponse{}, m.replyError("get-cart", err)
	}
	return CartResponse{Cart: *c}, nil
}

func (m *CartModule) handleCheckout(ctx context.Context, req CheckoutRequest, _ *mono.Msg) (CheckoutResponse, error) {
	order, err := m.checkout.Checkout(ctx, req.UserID, req.ShippingAddress)
	if err != nil {
		return CheckoutResponse{}, m.replyError("checkout", err)
	}
	return CheckoutResponse{Order: *order}, nil
}

func (m *CartModule) replyError(service string, err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err)
	}
	if appErr.Kind == apperr.KindInternal {
		m.logger.Error("Service failed", "service", service, "error", err)
	}
	return apperr.New(appErr.Kind, appErr.Message)
}
