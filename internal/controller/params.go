package controller

import (
	"strconv"

	"ai-chatbot-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
)

// idParam parses a positive numeric route parameter. Malformed ids are
// reported as not found, same as ids owned by someone else.
func idParam(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFound("conversation not found")
	}
	return uint(id), nil
}

func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return apperror.Validation("Invalid request body")
	}
	return nil
}
