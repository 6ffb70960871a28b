package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/savings-portal/internal/api/dto"
	"github.com/spec-kit/savings-portal/internal/bootstrap"
	"github.com/spec-kit/savings-portal/internal/domain"
	"github.com/spec-kit/savings-portal/internal/service"
	apperrors "github.com/spec-kit/savings-portal/pkg/util"
)

// SessionView is the read side of the session store.
type SessionView interface {
	CurrentPrincipal() *domain.Principal
	CurrentResolutionState() domain.ResolutionState
}

// Bootstrapper re-runs session bootstrap on demand.
type Bootstrapper interface {
	Run(ctx context.Context) bootstrap.Outcome
}

// SessionHandler exposes sign-in, registration and password endpoints.
type SessionHandler struct {
	auth      *service.AuthService
	sessions  SessionView
	bootstrap Bootstrapper
}

// NewSessionHandler constructs handler.
func NewSessionHandler(authService *service.AuthService, sessions SessionView, bootstrapper Bootstrapper) *SessionHandler {
	return &SessionHandler{auth: authService, sessions: sessions, bootstrap: bootstrapper}
}

// Current handles GET /session.
func (h *SessionHandler) Current(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.view()})
}

// Bootstrap handles POST /session/bootstrap.
func (h *SessionHandler) Bootstrap(c *fiber.Ctx) error {
	out := h.bootstrap.Run(c.UserContext())
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"state":     out.State,
			"via":       out.Via,
			"principal": h.sessions.CurrentPrincipal(),
		},
	})
}

// Login handles POST /session/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	principal, err := h.auth.Login(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SessionResponse{State: domain.StateResolvedAuthenticated, Principal: principal}})
}

// Register handles POST /session/register.
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	principal, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Email:    req.Email,
		OTP:      req.OTP,
		Password: req.Password,
		Username: req.Username,
		Mobile:   req.Mobile,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SessionResponse{State: domain.StateResolvedAuthenticated, Principal: principal}})
}

// RegisterWithPhone handles POST /session/register/phone.
func (h *SessionHandler) RegisterWithPhone(c *fiber.Ctx) error {
	var req dto.PhoneRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	principal, err := h.auth.RegisterWithPhone(c.UserContext(), req.FirebaseIDToken, req.Password)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.SessionResponse{State: domain.StateResolvedAuthenticated, Principal: principal}})
}

// Logout handles POST /session/logout.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext()); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": h.view()})
}

// SendOTP handles POST /session/otp/send.
func (h *SessionHandler) SendOTP(c *fiber.Ctx) error {
	var req dto.SendOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	msg, err := h.auth.SendOTP(c.UserContext(), req.Identifier, req.Purpose, req.Channel)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: msg}})
}

// VerifyOTP handles POST /session/otp/verify.
func (h *SessionHandler) VerifyOTP(c *fiber.Ctx) error {
	var req dto.VerifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	valid, err := h.auth.VerifyOTP(c.UserContext(), req.Identifier, req.Purpose, req.OTP)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"valid": valid}})
}

// ForgotPassword handles POST /session/password/forgot.
func (h *SessionHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	msg, err := h.auth.ForgotPassword(c.UserContext(), req.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: msg}})
}

// ResetPassword handles POST /session/password/reset.
func (h *SessionHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	msg, err := h.auth.ResetPassword(c.UserContext(), req.Identifier, req.OTP, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: msg}})
}

// ChangePassword handles POST /session/password/change.
func (h *SessionHandler) ChangePassword(c *fiber.Ctx) error {
	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	msg, err := h.auth.ChangePassword(c.UserContext(), req.CurrentPassword, req.NewPassword)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.MessageResponse{Message: msg}})
}

func (h *SessionHandler) view() dto.SessionResponse {
	return dto.SessionResponse{
		State:     h.sessions.CurrentResolutionState(),
		Principal: h.sessions.CurrentPrincipal(),
	}
}
