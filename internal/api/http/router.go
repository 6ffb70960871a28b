package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/savings-portal/internal/api/http/handlers"
	"github.com/spec-kit/savings-portal/internal/auth"
	"github.com/spec-kit/savings-portal/internal/guard"
	"github.com/spec-kit/savings-portal/internal/observability"
	"github.com/spec-kit/savings-portal/internal/session"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Session    *handlers.SessionHandler
	Screens    *handlers.ScreensHandler
	Guard      *guard.Guard
	Metrics    *observability.Metrics
	CookieName string

	// Sessions and Flag drive the credential cookie. It is only written on
	// /session responses and screen responses.
	Sessions     auth.SessionReader
	Flag         *session.CookieFlag
	CookieSecure bool
}

// RegisterRoutes wires HTTP routes. Screen paths are registered last and go
// through the request inspector before the route guard.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	mirror := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.Flag != nil && cfg.Sessions != nil {
		mirror = cookieFlagMiddleware(cfg.Flag, cfg.Sessions, cfg.CookieSecure)
	}

	sessionGroup := app.Group("/session", mirror)
	sessionGroup.Get("", cfg.Session.Current)
	sessionGroup.Post("/bootstrap", cfg.Session.Bootstrap)
	sessionGroup.Post("/login", cfg.Session.Login)
	sessionGroup.Post("/register", cfg.Session.Register)
	sessionGroup.Post("/register/phone", cfg.Session.RegisterWithPhone)
	sessionGroup.Post("/logout", cfg.Session.Logout)
	sessionGroup.Post("/otp/send", cfg.Session.SendOTP)
	sessionGroup.Post("/otp/verify", cfg.Session.VerifyOTP)
	sessionGroup.Post("/password/forgot", cfg.Session.ForgotPassword)
	sessionGroup.Post("/password/reset", cfg.Session.ResetPassword)
	sessionGroup.Post("/password/change", auth.RequireRole(), cfg.Session.ChangePassword)

	var recorder guard.Recorder
	if cfg.Metrics != nil {
		recorder = cfg.Metrics
	}
	app.Use(guard.Inspector(guard.InspectorConfig{
		Routes:     cfg.Guard.Routes(),
		CookieName: cfg.CookieName,
		SignIn:     cfg.Guard.SignInPath(),
		Landing:    cfg.Guard.LandingPath(),
		Recorder:   recorder,
	}))
	app.Get("/*", mirror, cfg.Screens.Show)
}
