// Package cart implements shopping carts and checkout.
package cart

import (
	"context"
	"errors"

	"github.com/example/shop-monolith/domain/apperr"
	domain "github.com/example/shop-monolith/domain/cart"
	"github.com/go-monolith/mono/pkg/types"
)

var (
	ErrCartNotFound    = apperr.NotFound("Cart not found")
	ErrProductNotFound = apperr.NotFound("Product not found")
	ErrInvalidQuantity = apperr.BadRequest("Quantity must be a positive integer")
	ErrProductRequired = apperr.BadRequest("Product id is required")
	ErrAddressRequired = apperr.BadRequest("Shipping address is required")
	ErrUserNotFound    = apperr.NotFound("User not found")
)

// Service provides cart operations.
type Service struct {
	repo   *Repository
	logger types.Logger
}

// NewService creates a new cart service.
func NewService(repo *Repository, logger types.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// AddToCart adds quantity of a product to the user's cart and returns the
// updated cart. Adding a product already in the cart increases its quantity.
func (s *Service) AddToCart(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	if productID == "" {
		return nil, ErrProductRequired
	}
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if err := s.repo.AddItem(ctx, userID, productID, quantity); err != nil {
		if errors.Is(err, errProductNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, apperr.Internal(err)
	}

	s.logger.Debug("Item added to cart", "user_id", userID, "product_id", productID, "quantity", quantity)
	return s.GetCart(ctx, userID)
}

// GetCart returns the user's cart with product details.
func (s *Service) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	c, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, errCartNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, apperr.Internal(err)
	}
	return c, nil
}
