package guard

import (
	"net/http"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var inspectorSkipPrefixes = []string{"/api", "/session", "/static", "/health", "/metrics"}

var imageExtensions = map[string]struct{}{
	".svg": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".webp": {}, ".ico": {},
}

// InspectorConfig configures the request inspector.
type InspectorConfig struct {
	Routes     Routes
	CookieName string
	SignIn     string
	Landing    string
	Recorder   Recorder
}

// Inspector is a coarse server-side gate that runs before any screen
// handler. It only looks at the session cookie's presence; role checks are
// left to the Guard.
func Inspector(cfg InspectorConfig) fiber.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "auth_token"
	}
	if cfg.SignIn == "" {
		cfg.SignIn = DefaultSignInPath
	}
	if cfg.Landing == "" {
		cfg.Landing = DefaultLandingPath
	}

	return func(c *fiber.Ctx) error {
		p := Clean(c.Path())
		if skipInspection(p) {
			return c.Next()
		}
		hasCookie := c.Cookies(cfg.CookieName) != ""
		req, _ := cfg.Routes.Match(p)

		switch {
		case req.Public && req.GuestOnly && hasCookie:
			record(cfg.Recorder, ActionRedirectDefault)
			return c.Redirect(cfg.Landing, http.StatusSeeOther)
		case !req.Public && !hasCookie:
			record(cfg.Recorder, ActionRedirectSignIn)
			return c.Redirect(cfg.SignIn, http.StatusSeeOther)
		}
		return c.Next()
	}
}

func skipInspection(p string) bool {
	if p == "/favicon.ico" {
		return true
	}
	for _, prefix := range inspectorSkipPrefixes {
		if covers(prefix, p) {
			return true
		}
	}
	_, image := imageExtensions[strings.ToLower(path.Ext(p))]
	return image
}

func record(r Recorder, a Action) {
	if r != nil {
		r.RecordGuardDecision(string(a))
	}
}
