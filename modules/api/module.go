// Package api exposes the shop over HTTP with Fiber.
package api

import (
	"context"
	"fmt"
	"time"

	domain "github.com/example/shop-monolith/domain/user"
	"github.com/example/shop-monolith/modules/auth"
	"github.com/example/shop-monolith/modules/cart"
	"github.com/example/shop-monolith/modules/catalog"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
)

// Config configures the HTTP server.
type Config struct {
	Port           int
	RequestTimeout time.Duration

	// RedisAddr enables the login and registration rate limiter when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AuthPerMinute int
}

// APIModule is the HTTP API module.
type APIModule struct {
	config      Config
	health      HealthFunc
	logger      types.Logger
	app         *fiber.App
	redis       *redis.Client
	authPort    auth.AuthPort
	catalogPort catalog.CatalogPort
	cartPort    cart.CartPort
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule. health is called by GET /health.
func NewModule(config Config, health HealthFunc, logger types.Logger) *APIModule {
	return &APIModule{
		config: config,
		health: health,
		logger: logger,
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "catalog", "cart"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authPort = auth.NewAuthAdapter(container)
	case "catalog":
		m.catalogPort = catalog.NewCatalogAdapter(container)
	case "cart":
		m.cartPort = cart.NewCartAdapter(container)
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(ctx context.Context) error {
	if m.authPort == nil || m.catalogPort == nil || m.cartPort == nil {
		return fmt.Errorf("api dependencies not set")
	}

	var limiter Limiter
	if m.config.RedisAddr != "" {
		m.redis = redis.NewClient(&redis.Options{
			Addr:     m.config.RedisAddr,
			Password: m.config.RedisPassword,
			DB:       m.config.RedisDB,
		})
		if err := m.redis.Ping(ctx).Err(); err != nil {
			m.logger.Warn("Redis unreachable, rate limiter will fail open", "addr", m.config.RedisAddr, "error", err)
		}
		limiter = NewSlidingWindowLimiter(m.redis, RateLimitConfig{
			RequestsPerWindow: m.config.AuthPerMinute,
			WindowSize:        time.Minute,
			KeyPrefix:         "shop:ratelimit:auth:",
		})
	}

	handlers := NewHandlers(m.authPort, m.catalogPort, m.cartPort, m.health, m.logger)
	m.app = newApp(routes{
		handlers:       handlers,
		authPort:       m.authPort,
		limiter:        limiter,
		limit:          m.config.AuthPerMinute,
		requestTimeout: m.config.RequestTimeout,
		logger:         m.logger,
	})

	addr := fmt.Sprintf(":%d", m.config.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", addr, "rate_limit", limiter != nil)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(ctx context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server")
	err := m.app.ShutdownWithContext(ctx)
	if m.redis != nil {
		if cerr := m.redis.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port":       m.config.Port,
			"rate_limit": m.redis != nil,
		},
	}
}

type routes struct {
	handlers       *Handlers
	authPort       auth.AuthPort
	limiter        Limiter
	limit          int
	requestTimeout time.Duration
	logger         types.Logger
}

// newApp builds the Fiber app with middleware and routes.
func newApp(r routes) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(r.logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
	}))
	app.Use(cors.New())
	app.Use(RequestTimeout(r.requestTimeout))

	h := r.handlers
	app.Get("/health", h.Health)

	limited := func(c *fiber.Ctx) error { return c.Next() }
	if r.limiter != nil {
		limited = RateLimitByIP(r.limiter, r.limit, r.logger)
	}

	authenticated := AuthMiddleware(r.authPort, r.logger)
	admin := RequireRole(domain.RoleAdmin, r.logger)
	customer := RequireRole(domain.RoleUser, r.logger)

	users := app.Group("/user")
	users.Post("/register", limited, h.Register)
	users.Post("/register-admin", limited, h.RegisterAdmin)
	users.Post("/login", limited, h.Login)
	users.Post("/logout", authenticated, h.Logout)
	users.Get("/", authenticated, h.Profile)

	app.Get("/products", h.ListProducts)
	app.Post("/product/create", authenticated, admin, h.CreateProduct)
	app.Get("/product/:id", h.GetProduct)
	app.Delete("/product/:id", authenticated, admin, h.DeleteProduct)
	app.Put("/product/:id", authenticated, admin, h.SetProductStatus)

	carts := app.Group("/cart", authenticated, customer)
	carts.Post("/", h.AddToCart)
	carts.Get("/", h.GetCart)
	carts.Post("/checkout", h.Checkout)

	return app
}
