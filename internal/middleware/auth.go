package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/taskledger/taskledger-api/internal/models"
	"github.com/taskledger/taskledger-api/internal/service"
	"github.com/taskledger/taskledger-api/internal/utils"
)

const identityKey = "identity"

// bearerToken extracts the credential from the Authorization header. The
// Bearer scheme prefix is required by convention.
func bearerToken(c *fiber.Ctx) string {
	authorization := c.Get(fiber.HeaderAuthorization)
	if authorization == "" {
		return ""
	}

	const bearer = "bearer "
	if !strings.HasPrefix(strings.ToLower(authorization), bearer) {
		return ""
	}

	return strings.TrimSpace(authorization[len(bearer):])
}

// RequireAuth resolves the bearer token to a live identity and stores it
// in the request locals. Missing/invalid tokens yield 401; a valid token
// for a deactivated account yields 403.
func RequireAuth(resolver service.IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing or malformed")
		}

		identity, err := resolver.Resolve(c.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrAccountInactive) {
				return utils.SendError(c, fiber.StatusForbidden, service.ErrAccountInactive.Error())
			}
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authentication credentials")
		}

		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// OptionalAuth resolves the identity when a valid token is present and
// continues anonymously otherwise. Every failure mode degrades to
// anonymous on purpose.
func OptionalAuth(resolver service.IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := resolver.ResolveOptional(c.Context(), bearerToken(c)); user != nil {
			c.Locals(identityKey, *user)
		}
		return c.Next()
	}
}

// IdentityFromCtx returns the resolved identity stored by RequireAuth or
// OptionalAuth.
func IdentityFromCtx(c *fiber.Ctx) (models.User, bool) {
	identity, ok := c.Locals(identityKey).(models.User)
	return identity, ok
}
