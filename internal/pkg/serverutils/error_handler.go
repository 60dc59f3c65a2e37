package serverutils

import (
	"errors"

	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns errors returned by handlers into the standard
// response envelope. Server-side failures are logged, client errors are not.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var appErr *apperror.Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &appErr):
			code = appErr.StatusCode()
			if code < fiber.StatusInternalServerError || appErr.Kind == apperror.KindUnavailable {
				message = appErr.Error()
			} else if appErr.Message != "" {
				message = appErr.Message
			}
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		}

		if code >= fiber.StatusInternalServerError && log != nil {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": code,
				"error":  err,
			})
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
