package api

import (
	domaincart "github.com/example/shop-monolith/domain/cart"
	"github.com/example/shop-monolith/domain/product"
	domain "github.com/example/shop-monolith/domain/user"
	"github.com/go-monolith/mono"
)

// RegisterRequest is the body of the register endpoints.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of the login endpoint. Role is optional.
type LoginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role,omitempty"`
}

// AddToCartRequest is the body of POST /cart.
type AddToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CheckoutRequest is the body of POST /cart/checkout.
type CheckoutRequest struct {
	ShippingAddress string `json:"shippingAddress"`
}

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Message string `json:"message"`
}

// UserResponse wraps a user.
type UserResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"accessToken"`
}

// MessageResponse carries only a message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProductResponse wraps a product.
type ProductResponse struct {
	Message string           `json:"message"`
	Product *product.Product `json:"product"`
}

// ProductsResponse wraps a product list.
type ProductsResponse struct {
	Message  string            `json:"message"`
	Products []product.Product `json:"products"`
}

// CartResponse wraps a cart.
type CartResponse struct {
	Message string           `json:"message"`
	Cart    *domaincart.Cart `json:"cart"`
}

// OrderResponse wraps a placed order.
type OrderResponse struct {
	Message string            `json:"message"`
	Order   *domaincart.Order `json:"order"`
}

// HealthResponse reports the status of every module.
type HealthResponse struct {
	Message string                       `json:"message"`
	Modules map[string]mono.HealthStatus `json:"modules"`
}
