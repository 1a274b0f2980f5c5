package middleware

import (
	"recipebox/internal/models"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// PrincipalResolver turns an Authorization header into a principal.
// *services.AuthService satisfies it.
type PrincipalResolver interface {
	ResolvePrincipal(authHeader string) (*models.Principal, bool)
}

// AuthRequired is a Fiber middleware that rejects requests without a valid
// bearer token and stores the resolved principal in the context.
func AuthRequired(resolver PrincipalResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := resolver.ResolvePrincipal(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by AuthRequired, or nil.
func PrincipalFrom(c *fiber.Ctx) *models.Principal {
	principal, _ := c.Locals(principalKey).(*models.Principal)
	return principal
}
