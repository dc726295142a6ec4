package api

import (
	"context"
	"fmt"

	"github.com/example/shop-monolith/domain/product"
	domain "github.com/example/shop-monolith/domain/user"
	"github.com/example/shop-monolith/modules/auth"
	"github.com/example/shop-monolith/modules/cart"
	"github.com/example/shop-monolith/modules/catalog"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// HealthFunc reports the health of each module by name.
type HealthFunc func(ctx context.Context) map[string]mono.HealthStatus

// Handlers contains the HTTP handlers of the shop API.
type Handlers struct {
	auth    auth.AuthPort
	catalog catalog.CatalogPort
	cart    cart.CartPort
	health  HealthFunc
	logger  types.Logger
}

// NewHandlers creates handlers backed by the given ports.
func NewHandlers(authPort auth.AuthPort, catalogPort catalog.CatalogPort, cartPort cart.CartPort, health HealthFunc, logger types.Logger) *Handlers {
	return &Handlers{
		auth:    authPort,
		catalog: catalogPort,
		cart:    cartPort,
		health:  health,
		logger:  logger,
	}
}

// Health handles GET /health.
func (h *Handlers) Health(c *fiber.Ctx) error {
	modules := map[string]mono.HealthStatus{}
	if h.health != nil {
		modules = h.health(c.UserContext())
	}
	return c.JSON(HealthResponse{
		Message: "Server is up and running",
		Modules: modules,
	})
}

// Register handles POST /user/register.
func (h *Handlers) Register(c *fiber.Ctx) error {
	return h.register(c, domain.RoleUser, "User created successfully")
}

// RegisterAdmin handles POST /user/register-admin.
func (h *Handlers) RegisterAdmin(c *fiber.Ctx) error {
	return h.register(c, domain.RoleAdmin, "Admin created successfully")
}

func (h *Handlers) register(c *fiber.Ctx, role domain.Role, message string) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, ErrInvalidBody)
	}

	user, err := h.auth.Register(c.UserContext(), auth.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(UserResponse{
		Message: message,
		User:    user,
	})
}

// Login handles POST /user/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, ErrInvalidBody)
	}

	resp, err := h.auth.Login(c.UserContext(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return c.JSON(LoginResponse{
		Message:     fmt.Sprintf("Hello %s you are successfully logged in", resp.Email),
		AccessToken: resp.AccessToken,
	})
}

// Logout handles POST /user/logout.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	if err := h.auth.Logout(c.UserContext(), claims.UserID); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(MessageResponse{Message: "User logged out successfully"})
}

// Profile handles GET /user.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	user, err := h.auth.GetUser(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(UserResponse{
		Message: "User retrieved successfully",
		User:    user,
	})
}

// CreateProduct handles POST /product/create.
func (h *Handlers) CreateProduct(c *fiber.Ctx) error {
	var req product.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, ErrInvalidBody)
	}

	p, err := h.catalog.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ProductResponse{
		Message: "Product created successfully",
		Product: p,
	})
}

// ListProducts handles GET /products.
func (h *Handlers) ListProducts(c *fiber.Ctx) error {
	products, err := h.catalog.ListPublished(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	if products == nil {
		products = []product.Product{}
	}
	return c.JSON(ProductsResponse{
		Message:  "Products retrieved successfully",
		Products: products,
	})
}

// GetProduct handles GET /product/:id.
func (h *Handlers) GetProduct(c *fiber.Ctx) error {
	p, err := h.catalog.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(ProductResponse{
		Message: "Product retrieved successfully",
		Product: p,
	})
}

// DeleteProduct handles DELETE /product/:id.
func (h *Handlers) DeleteProduct(c *fiber.Ctx) error {
	p, err := h.catalog.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(ProductResponse{
		Message: "Product deleted successfully",
		Product: p,
	})
}

// SetProductStatus handles PUT /product/:id. An empty body toggles the
// published flag.
func (h *Handlers) SetProductStatus(c *fiber.Ctx) error {
	var req product.StatusRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, h.logger, ErrInvalidBody)
		}
	}

	p, err := h.catalog.SetStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(ProductResponse{
		Message: "Product status changed successfully",
		Product: p,
	})
}

// AddToCart handles POST /cart.
func (h *Handlers) AddToCart(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, ErrInvalidBody)
	}

	claims := claimsFrom(c)
	userCart, err := h.cart.AddToCart(c.UserContext(), claims.UserID, req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(CartResponse{
		Message: "Item added successfully",
		Cart:    userCart,
	})
}

// GetCart handles GET /cart.
func (h *Handlers) GetCart(c *fiber.Ctx) error {
	claims := claimsFrom(c)
	userCart, err := h.cart.GetCart(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(CartResponse{
		Message: "Cart retrieved successfully",
		Cart:    userCart,
	})
}

// Checkout handles POST /cart/checkout.
func (h *Handlers) Checkout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, h.logger, ErrInvalidBody)
	}

	claims := claimsFrom(c)
	order, err := h.cart.Checkout(c.UserContext(), claims.UserID, req.ShippingAddress)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(OrderResponse{
		Message: "Checkout completed successfully",
		Order:   order,
	})
}
