package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/savings-portal/internal/api/dto"
	"github.com/spec-kit/savings-portal/internal/guard"
)

// ScreensHandler serves every screen path through the route guard.
type ScreensHandler struct {
	guard    *guard.Guard
	sessions SessionView
}

// NewScreensHandler constructs handler.
func NewScreensHandler(g *guard.Guard, sessions SessionView) *ScreensHandler {
	return &ScreensHandler{guard: g, sessions: sessions}
}

// Show handles GET on any screen path. Redirects use 303 so the gated URL
// is replaced rather than kept in history.
func (h *ScreensHandler) Show(c *fiber.Ctx) error {
	screen := guard.Clean(c.Path())
	principal := h.sessions.CurrentPrincipal()
	decision := h.guard.Evaluate(screen, h.sessions.CurrentResolutionState(), principal)

	switch decision.Action {
	case guard.ActionLoading:
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": dto.ScreenResponse{Screen: "loading"}})
	case guard.ActionRedirectSignIn, guard.ActionRedirectDefault:
		return c.Redirect(decision.Target, http.StatusSeeOther)
	default:
		return c.JSON(fiber.Map{"data": dto.ScreenResponse{Screen: screen, Principal: principal}})
	}
}
