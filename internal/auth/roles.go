package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/savings-portal/internal/domain"
	apperrors "github.com/spec-kit/savings-portal/pkg/util"
)

// RequireRole ensures a principal is signed in and, when roles are given,
// holds one of them.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("sign in required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}
