package http

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/savings-portal/internal/auth"
	"github.com/spec-kit/savings-portal/internal/domain"
	"github.com/spec-kit/savings-portal/internal/observability"
	"github.com/spec-kit/savings-portal/internal/session"
	apperrors "github.com/spec-kit/savings-portal/pkg/util"
)

// MiddlewareConfig bundles dependencies of the global middlewares.
type MiddlewareConfig struct {
	Logger   *zap.Logger
	Metrics  *observability.Metrics
	Timeout  time.Duration
	Sessions auth.SessionReader
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(observability.RequestLogger(cfg.Logger, cfg.Metrics))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
	app.Use(errorHandlingMiddleware(cfg.Logger, cfg.Metrics))
	if cfg.Sessions != nil {
		app.Use(auth.SessionMiddleware(cfg.Sessions))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				response := fiber.Map{"error": fiber.Map{
					"code":    domainErr.Code,
					"message": domainErr.Message,
				}}
				if len(domainErr.Details) > 0 {
					response["error"].(fiber.Map)["details"] = domainErr.Details
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("request_id", observability.RequestID(c)),
						zap.Error(domainErr))
				}
				c.Status(domainErr.HTTPStatus)
				_ = c.JSON(response)
				err = nil
			}
		}()
		return c.Next()
	}
}

func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.NewDomainError(apperrors.CodeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(err)
}

// cookieFlagMiddleware mirrors the session flag onto the response once the
// handler has run. A cookie sent by the client is expired only after the
// session resolved unauthenticated; while bootstrap is pending it is left
// untouched.
func cookieFlagMiddleware(flag *session.CookieFlag, sessions auth.SessionReader, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		state := flag.State()
		cookie := &fiber.Cookie{
			Name:     state.Name,
			Path:     "/",
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   secure,
		}
		switch {
		case state.Present:
			cookie.Value = state.Value
			cookie.MaxAge = int(state.MaxAge / time.Second)
			if cookie.MaxAge < 1 {
				cookie.MaxAge = 1
			}
			c.Cookie(cookie)
		case c.Cookies(state.Name) != "" &&
			sessions.CurrentResolutionState() == domain.StateResolvedUnauthenticated:
			cookie.Expires = time.Unix(0, 0)
			c.Cookie(cookie)
		}
		return err
	}
}
