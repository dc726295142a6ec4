package cart

import domain "github.com/example/shop-monolith/domain/cart"

// AddToCartRequest is the request for the add-to-cart service.
type AddToCartRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// GetCartRequest is the request for the get-cart service.
type GetCartRequest struct {
	UserID string `json:"userId"`
}

// CartResponse wraps a cart.
type CartResponse struct {
	Cart domain.Cart `json:"cart"`
}

// CheckoutRequest is the request for the checkout service.
type CheckoutRequest struct {
	UserID          string `json:"userId"`
	ShippingAddress string `json:"shippingAddress"`
}

// CheckoutResponse wraps the placed order.
type CheckoutResponse struct {
	Order domain.Order `json:"order"`
}
