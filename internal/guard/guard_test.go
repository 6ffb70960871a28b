package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/savings-portal/internal/domain"
)

type countingRecorder struct {
	actions []string
}

func (r *countingRecorder) RecordGuardDecision(action string) {
	r.actions = append(r.actions, action)
}

var (
	admin = &domain.Principal{ID: "a-1", Name: "Root", Role: domain.RoleAdmin}
	user  = &domain.Principal{ID: "u-1", Name: "Asha", Role: domain.RoleUser}
)

func TestEvaluate_UnresolvedIsAlwaysLoading(t *testing.T) {
	g := New(DefaultRoutes())
	for _, p := range []string{"/", "/login", "/admin", "/dashboard", "/nowhere"} {
		d := g.Evaluate(p, domain.StateUnresolved, nil)
		assert.Equal(t, ActionLoading, d.Action, p)
		assert.Empty(t, d.Target, p)
	}
}

func TestEvaluate(t *testing.T) {
	g := New(DefaultRoutes())

	tests := []struct {
		name      string
		path      string
		state     domain.ResolutionState
		principal *domain.Principal
		action    Action
		target    string
	}{
		{"public while signed out", "/", domain.StateResolvedUnauthenticated, nil, ActionRender, ""},
		{"sign-in page while signed out", "/login", domain.StateResolvedUnauthenticated, nil, ActionRender, ""},
		{"password reset while signed out", "/forgot-password", domain.StateResolvedUnauthenticated, nil, ActionRender, ""},
		{"protected while signed out", "/dashboard", domain.StateResolvedUnauthenticated, nil, ActionRedirectSignIn, "/login"},
		{"unlisted path while signed out", "/reports", domain.StateResolvedUnauthenticated, nil, ActionRedirectSignIn, "/login"},
		{"admin on admin area", "/admin/users", domain.StateResolvedAuthenticated, admin, ActionRender, ""},
		{"user on admin area", "/admin", domain.StateResolvedAuthenticated, user, ActionRedirectDefault, "/dashboard"},
		{"admin on user area", "/user/settings", domain.StateResolvedAuthenticated, admin, ActionRedirectDefault, "/dashboard"},
		{"any role on dashboard", "/dashboard", domain.StateResolvedAuthenticated, user, ActionRender, ""},
		{"unlisted path while signed in", "/reports", domain.StateResolvedAuthenticated, user, ActionRender, ""},
		{"sign-in page while signed in", "/login", domain.StateResolvedAuthenticated, user, ActionRedirectDefault, "/dashboard"},
		{"register page while signed in", "/register", domain.StateResolvedAuthenticated, admin, ActionRedirectDefault, "/dashboard"},
		{"public page while signed in", "/test", domain.StateResolvedAuthenticated, user, ActionRender, ""},
		{"authenticated state without principal", "/dashboard", domain.StateResolvedAuthenticated, nil, ActionRedirectSignIn, "/login"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := g.Evaluate(tc.path, tc.state, tc.principal)
			assert.Equal(t, tc.action, d.Action)
			assert.Equal(t, tc.target, d.Target)
			assert.Equal(t, tc.target != "", d.Replace)
		})
	}
}

func TestEvaluate_NeverRedirectsToItself(t *testing.T) {
	g := New(DefaultRoutes())

	assert.Equal(t, ActionRender, g.Evaluate("/login", domain.StateResolvedUnauthenticated, nil).Action)
	assert.Equal(t, ActionRender, g.Evaluate("/dashboard", domain.StateResolvedAuthenticated, admin).Action)
	assert.Equal(t, ActionRender, g.Evaluate("/dashboard", domain.StateResolvedAuthenticated, user).Action)
}

func TestEvaluate_CustomPathsAndRecorder(t *testing.T) {
	rec := &countingRecorder{}
	g := New(DefaultRoutes(), WithSignInPath("/sign-in/"), WithLandingPath("/home"), WithRecorder(rec))

	assert.Equal(t, "/sign-in", g.Evaluate("/dashboard", domain.StateResolvedUnauthenticated, nil).Target)
	assert.Equal(t, "/home", g.Evaluate("/admin", domain.StateResolvedAuthenticated, user).Target)
	assert.Equal(t, []string{"redirect_sign_in", "redirect_default"}, rec.actions)
}
