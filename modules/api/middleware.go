package api

import (
	"context"
	"strings"
	"time"

	"github.com/example/shop-monolith/domain/apperr"
	domain "github.com/example/shop-monolith/domain/user"
	"github.com/example/shop-monolith/modules/auth"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store user claims in the Fiber context.
	UserContextKey = "user"
)

var (
	ErrMissingToken = apperr.Unauthorized("Missing authorization token")
	ErrForbidden    = apperr.Forbidden("Unauthorized access")
)

// AuthMiddleware validates the bearer token and stores the caller's claims.
// Signature, expiry and revocation are all checked by the auth module.
func AuthMiddleware(authPort auth.AuthPort, logger types.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			return respondError(c, logger, ErrMissingToken)
		}

		claims, err := authPort.ValidateToken(c.UserContext(), token)
		if err != nil {
			return respondError(c, logger, err)
		}

		c.Locals(UserContextKey, claims)
		return c.Next()
	}
}

// RequireRole rejects callers whose role is not role. It must run after
// AuthMiddleware.
func RequireRole(role domain.Role, logger types.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := claimsFrom(c)
		if claims == nil {
			return respondError(c, logger, ErrMissingToken)
		}
		if claims.Role != role {
			return respondError(c, logger, ErrForbidden)
		}
		return c.Next()
	}
}

// RequestTimeout bounds the context handed to downstream services.
func RequestTimeout(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if timeout <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func claimsFrom(c *fiber.Ctx) *domain.Claims {
	claims, _ := c.Locals(UserContextKey).(*domain.Claims)
	return claims
}
