package api

import (
	"errors"

	"github.com/example/shop-monolith/domain/apperr"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// ErrInvalidBody is returned when a request body cannot be decoded.
var ErrInvalidBody = apperr.BadRequest("Invalid request body")

// respondError writes the failure envelope for err. Internal errors are
// logged and replaced with a generic message.
func respondError(c *fiber.Ctx, logger types.Logger, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(apperr.HTTPStatus(kind)).JSON(ErrorResponse{
		Message: apperr.MessageOf(err),
	})
}

// errorHandler handles errors returned by handlers and Fiber itself.
func errorHandler(logger types.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ErrorResponse{Message: fe.Message})
		}
		return respondError(c, logger, err)
	}
}
