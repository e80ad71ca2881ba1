package serverutils

import (
	"errors"

	"ai-docview/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware renders errors returned by handlers as
// {"detail": "..."} with a matching status.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var verr *ValidationError
		var ferr *fiber.Error
		switch {
		case errors.As(err, &verr):
			return ctx.Status(fiber.StatusUnprocessableEntity).JSON(Detail(verr.Error()))
		case errors.As(err, &ferr):
			return ctx.Status(ferr.Code).JSON(Detail(ferr.Message))
		default:
			log.Error("HTTP", "Unhandled error", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"error":  err.Error(),
			})
			return ctx.Status(fiber.StatusInternalServerError).JSON(Detail("Internal server error"))
		}
	}
}
