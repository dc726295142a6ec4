package api

import (
	"context"
	"sync"
	"time"

	domaincart "github.com/example/shop-monolith/domain/cart"
	"github.com/example/shop-monolith/domain/product"
	domain "github.com/example/shop-monolith/domain/user"
	"github.com/example/shop-monolith/modules/auth"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }

// mockAuthPort is a mock implementation of auth.AuthPort for testing.
type mockAuthPort struct {
	registerFunc      func(ctx context.Context, req auth.RegisterRequest) (*domain.User, error)
	loginFunc         func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
	logoutFunc        func(ctx context.Context, userID string) error
	validateTokenFunc func(ctx context.Context, token string) (*domain.Claims, error)
	getUserFunc       func(ctx context.Context, userID string) (*domain.User, error)
}

func (m *mockAuthPort) Register(ctx context.Context, req auth.RegisterRequest) (*domain.User, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthPort) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthPort) Logout(ctx context.Context, userID string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, userID)
	}
	return nil
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*domain.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, nil
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, nil
}

type mockCatalogPort struct {
	createFunc    func(ctx context.Context, req product.CreateRequest) (*product.Product, error)
	listFunc      func(ctx context.Context) ([]product.Product, error)
	getFunc       func(ctx context.Context, id string) (*product.Product, error)
	deleteFunc    func(ctx context.Context, id string) (*product.Product, error)
	setStatusFunc func(ctx context.Context, id string, status *bool) (*product.Product, error)
}

func (m *mockCatalogPort) Create(ctx context.Context, req product.CreateRequest) (*product.Product, error) {
	return m.createFunc(ctx, req)
}

func (m *mockCatalogPort) ListPublished(ctx context.Context) ([]product.Product, error) {
	return m.listFunc(ctx)
}

func (m *mockCatalogPort) Get(ctx context.Context, id string) (*product.Product, error) {
	return m.getFunc(ctx, id)
}

func (m *mockCatalogPort) Delete(ctx context.Context, id string) (*product.Product, error) {
	return m.deleteFunc(ctx, id)
}

func (m *mockCatalogPort) SetStatus(ctx context.Context, id string, status *bool) (*product.Product, error) {
	return m.setStatusFunc(ctx, id, status)
}

type mockCartPort struct {
	addFunc      func(ctx context.Context, userID, productID string, quantity int) (*domaincart.Cart, error)
	getFunc      func(ctx context.Context, userID string) (*domaincart.Cart, error)
	checkoutFunc func(ctx context.Context, userID, shippingAddress string) (*domaincart.Order, error)
}

func (m *mockCartPort) AddToCart(ctx context.Context, userID, productID string, quantity int) (*domaincart.Cart, error) {
	return m.addFunc(ctx, userID, productID, quantity)
}

func (m *mockCartPort) GetCart(ctx context.Context, userID string) (*domaincart.Cart, error) {
	return m.getFunc(ctx, userID)
}

func (m *mockCartPort) Checkout(ctx context.Context, userID, shippingAddress string) (*domaincart.Order, error) {
	return m.checkoutFunc(ctx, userID, shippingAddress)
}

// fakeLimiter allows the first n requests per key.
type fakeLimiter struct {
	mu    sync.Mutex
	n     int
	seen  map[string]int
	err   error
	calls int
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (*RateLimitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.seen == nil {
		f.seen = map[string]int{}
	}
	f.seen[key]++
	allowed := f.seen[key] <= f.n
	remaining := f.n - f.seen[key]
	if remaining < 0 {
		remaining = 0
	}
	res := &RateLimitResult{Allowed: allowed, Remaining: remaining}
	if !allowed {
		res.RetryAfter = 1500 * time.Millisecond
	}
	return res, nil
}

// testTokens maps bearer tokens to claims for the test app.
var testTokens = map[string]*domain.Claims{
	"user-token":  {UserID: "u1", Email: "ann@example.com", Role: domain.RoleUser},
	"admin-token": {UserID: "a1", Email: "root@example.com", Role: domain.RoleAdmin},
}

func tokenValidator(_ context.Context, token string) (*domain.Claims, error) {
	switch token {
	case "expired-token":
		return nil, auth.ErrTokenExpired
	case "revoked-token":
		return nil, auth.ErrTokenRevoked
	}
	if claims, ok := testTokens[token]; ok {
		return claims, nil
	}
	return nil, auth.ErrTokenInvalid
}

type testDeps struct {
	auth    *mockAuthPort
	catalog *mockCatalogPort
	cart    *mockCartPort
	limiter Limiter
}

func newTestApp(d testDeps) *fiber.App {
	if d.auth == nil {
		d.auth = &mockAuthPort{}
	}
	if d.auth.validateTokenFunc == nil {
		d.auth.validateTokenFunc = tokenValidator
	}
	if d.catalog == nil {
		d.catalog = &mockCatalogPort{}
	}
	if d.cart == nil {
		d.cart = &mockCartPort{}
	}
	logger := &mockLogger{}
	handlers := NewHandlers(d.auth, d.catalog, d.cart, nil, logger)
	return newApp(routes{
		handlers: handlers,
		authPort: d.auth,
		limiter:  d.limiter,
		limit:    2,
		logger:   logger,
	})
}
