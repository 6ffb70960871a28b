package guard

import (
	"github.com/spec-kit/savings-portal/internal/domain"
)

// Action is what the presentation layer does with a navigation.
type Action string

const (
	ActionLoading         Action = "loading"
	ActionRender          Action = "render"
	ActionRedirectSignIn  Action = "redirect_sign_in"
	ActionRedirectDefault Action = "redirect_default"
)

const (
	DefaultSignInPath  = "/login"
	DefaultLandingPath = "/dashboard"
)

// Decision is the outcome of evaluating one navigation. Redirects always
// replace the current history entry.
type Decision struct {
	Action  Action
	Target  string
	Replace bool
}

// Recorder observes decisions.
type Recorder interface {
	RecordGuardDecision(action string)
}

// Option customizes a Guard.
type Option func(*Guard)

// WithSignInPath overrides the sign-in screen.
func WithSignInPath(p string) Option {
	return func(g *Guard) { g.signIn = Clean(p) }
}

// WithLandingPath overrides the default authenticated screen.
func WithLandingPath(p string) Option {
	return func(g *Guard) { g.landing = Clean(p) }
}

// WithRecorder reports every decision to r.
func WithRecorder(r Recorder) Option {
	return func(g *Guard) { g.recorder = r }
}

// Guard decides, for a path and the current session, whether to render,
// wait or redirect. It never blocks and never writes session state.
type Guard struct {
	routes   Routes
	signIn   string
	landing  string
	recorder Recorder
}

// New builds a Guard over routes.
func New(routes Routes, opts ...Option) *Guard {
	g := &Guard{routes: routes, signIn: DefaultSignInPath, landing: DefaultLandingPath}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Routes returns the guard's table.
func (g *Guard) Routes() Routes { return g.routes }

// SignInPath is where unauthenticated navigations are sent.
func (g *Guard) SignInPath() string { return g.signIn }

// LandingPath is where principals without the required role are sent.
func (g *Guard) LandingPath() string { return g.landing }

// Evaluate decides the navigation to p.
func (g *Guard) Evaluate(p string, state domain.ResolutionState, principal *domain.Principal) Decision {
	d := g.evaluate(p, state, principal)
	if g.recorder != nil {
		g.recorder.RecordGuardDecision(string(d.Action))
	}
	return d
}

func (g *Guard) evaluate(p string, state domain.ResolutionState, principal *domain.Principal) Decision {
	if !state.Resolved() {
		return Decision{Action: ActionLoading}
	}
	req, _ := g.routes.Match(p)
	authenticated := state == domain.StateResolvedAuthenticated && principal != nil

	if req.Public {
		if req.GuestOnly && authenticated {
			return g.redirect(ActionRedirectDefault, g.landing)
		}
		return Decision{Action: ActionRender}
	}
	if !authenticated {
		return g.redirect(ActionRedirectSignIn, g.signIn)
	}
	if !req.Allows(principal.Role) {
		return g.redirect(ActionRedirectDefault, g.landing)
	}
	return Decision{Action: ActionRender}
}

func (g *Guard) redirect(action Action, target string) Decision {
	return Decision{Action: action, Target: target, Replace: true}
}
