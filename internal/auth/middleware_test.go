package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/savings-portal/internal/domain"
	apperrors "github.com/spec-kit/savings-portal/pkg/util"
)

type staticSession struct {
	state     domain.ResolutionState
	principal *domain.Principal
}

func (s staticSession) CurrentPrincipal() *domain.Principal { return s.principal }
func (s staticSession) CurrentResolutionState() domain.ResolutionState { return s.state }

func statusFor(t *testing.T, sessions SessionReader, roles ...domain.Role) int {
	t.Helper()
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
		},
	})
	app.Use(SessionMiddleware(sessions))
	app.Get("/", RequireRole(roles...), func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		assert.True(t, ok)
		return c.SendString(principal.ID)
	})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireRole(t *testing.T) {
	user := staticSession{state: domain.StateResolvedAuthenticated, principal: &domain.Principal{ID: "u-1", Role: domain.RoleUser}}
	signedOut := staticSession{state: domain.StateResolvedUnauthenticated}
	unresolved := staticSession{state: domain.StateUnresolved, principal: &domain.Principal{ID: "u-1", Role: domain.RoleUser}}

	assert.Equal(t, http.StatusOK, statusFor(t, user))
	assert.Equal(t, http.StatusOK, statusFor(t, user, domain.RoleUser, domain.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, statusFor(t, user, domain.RoleAdmin))
	assert.Equal(t, http.StatusUnauthorized, statusFor(t, signedOut))
	assert.Equal(t, http.StatusUnauthorized, statusFor(t, unresolved))
}
