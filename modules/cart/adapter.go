package cart

import (
	"context"
	"encoding/json"

	"github.com/example/shop-monolith/domain/apperr"
	domain "github.com/example/shop-monolith/domain/cart"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// CartPort defines the cart operations other modules use.
type CartPort interface {
	AddToCart(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	Checkout(ctx context.Context, userID, shippingAddress string) (*domain.Order, error)
}

// CartAdapter implements CartPort using the service container.
type CartAdapter struct {
	container mono.ServiceContainer
}

var _ CartPort = (*CartAdapter)(nil)

// NewCartAdapter creates a new CartAdapter.
func NewCartAdapter(container mono.ServiceContainer) *CartAdapter {
	return &CartAdapter{container: container}
}

func (a *CartAdapter) AddToCart(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	req := AddToCartRequest{UserID: userID, ProductID: productID, Quantity: quantity}
	var resp CartResponse
	if err := a.call(ctx, "add-to-cart", &req, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

func (a *CartAdapter) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	req := GetCartRequest{UserID: userID}
	var resp CartResponse
	if err := a.call(ctx, "get-cart", &req, &resp); err != nil {
		return nil, err
	}
	return &resp.Cart, nil
}

func (a *CartAdapter) Checkout(ctx context.Context, userID, shippingAddress string) (*domain.Order, error) {
	req := CheckoutRequest{UserID: userID, ShippingAddress: shippingAddress}
	var resp CheckoutResponse
	if err := a.call(ctx, "checkout", &req, &resp); err != nil {
		return nil, err
	}
	return &resp.Order, nil
}

func (a *CartAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return apperr.FromRemote(err)
	}
	return nil
}
