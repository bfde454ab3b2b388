package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/taskledger/taskledger-api/internal/service"
	"github.com/taskledger/taskledger-api/internal/utils"
)

// RequireAdmin ensures the resolved identity carries the ADMIN role. It
// must run after RequireAuth.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromCtx(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		if err := service.RequireAdmin(identity); err != nil {
			return utils.SendError(c, fiber.StatusForbidden, "admin access required")
		}

		return c.Next()
	}
}
