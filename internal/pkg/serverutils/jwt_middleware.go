package serverutils

import (
	"strings"

	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/jwtauth"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserId = "user_id"
	localClaims = "claims"
)

func JwtMiddleware(verifier jwtauth.Verifier) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || !strings.EqualFold(authHeader[:7], "Bearer ") {
			return apperror.Unauthorized("Missing token")
		}

		claims, err := verifier.Verify(ctx.UserContext(), authHeader[7:])
		if err != nil {
			return err
		}

		ctx.Locals(localUserId, claims.UserId)
		ctx.Locals(localClaims, claims)
		return ctx.Next()
	}
}

// CurrentUserId returns the principal stored by JwtMiddleware.
func CurrentUserId(ctx *fiber.Ctx) (uint, error) {
	userId, ok := ctx.Locals(localUserId).(uint)
	if !ok || userId == 0 {
		return 0, apperror.Unauthorized("Missing authenticated user")
	}
	return userId, nil
}

func CurrentClaims(ctx *fiber.Ctx) (*jwtauth.Claims, error) {
	claims, ok := ctx.Locals(localClaims).(*jwtauth.Claims)
	if !ok || claims == nil {
		return nil, apperror.Unauthorized("Missing authenticated user")
	}
	return claims, nil
}
