package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/savings-portal/internal/domain"
)

const principalKey = "auth_principal"

// SessionReader exposes the signed-in principal.
type SessionReader interface {
	CurrentPrincipal() *domain.Principal
	CurrentResolutionState() domain.ResolutionState
}

// SessionMiddleware copies the current principal into the request locals.
// It never rejects a request.
func SessionMiddleware(sessions SessionReader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sessions.CurrentResolutionState() == domain.StateResolvedAuthenticated {
			if principal := sessions.CurrentPrincipal(); principal != nil {
				c.Locals(principalKey, principal)
			}
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*domain.Principal)
	return principal, ok && principal != nil
}
