package guard

import (
	"path"
	"strings"

	"github.com/spec-kit/savings-portal/internal/domain"
)

// Requirement gates every path under Prefix. Public entries need no
// credential; otherwise Roles lists the accepted roles and an empty set
// accepts any authenticated principal.
type Requirement struct {
	Prefix    string
	Public    bool
	GuestOnly bool
	Roles     []domain.Role
}

// Allows reports whether role satisfies the requirement.
func (r Requirement) Allows(role domain.Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Routes is an immutable requirement table.
type Routes struct {
	entries []Requirement
}

// NewRoutes copies entries into a table. Prefixes are cleaned so "/admin/"
// and "/admin" are the same entry; a later duplicate replaces an earlier one.
func NewRoutes(entries ...Requirement) Routes {
	byPrefix := make(map[string]int, len(entries))
	out := make([]Requirement, 0, len(entries))
	for _, e := range entries {
		e.Prefix = Clean(e.Prefix)
		e.Roles = append([]domain.Role(nil), e.Roles...)
		if i, ok := byPrefix[e.Prefix]; ok {
			out[i] = e
			continue
		}
		byPrefix[e.Prefix] = len(out)
		out = append(out, e)
	}
	return Routes{entries: out}
}

// DefaultRoutes is the portal's route table.
func DefaultRoutes() Routes {
	return NewRoutes(
		Requirement{Prefix: "/", Public: true},
		Requirement{Prefix: "/login", Public: true, GuestOnly: true},
		Requirement{Prefix: "/register", Public: true, GuestOnly: true},
		Requirement{Prefix: "/forgot-password", Public: true},
		Requirement{Prefix: "/test", Public: true},
		Requirement{Prefix: "/admin", Roles: []domain.Role{domain.RoleAdmin}},
		Requirement{Prefix: "/user", Roles: []domain.Role{domain.RoleUser}},
		Requirement{Prefix: "/dashboard"},
		Requirement{Prefix: "/savings"},
		Requirement{Prefix: "/profile"},
		Requirement{Prefix: "/settings"},
	)
}

// Match returns the requirement with the longest prefix covering p. "/"
// only covers the root itself. Paths matching nothing need an authenticated
// principal of any role.
func (r Routes) Match(p string) (Requirement, bool) {
	p = Clean(p)
	best := -1
	for i, e := range r.entries {
		if !covers(e.Prefix, p) {
			continue
		}
		if best < 0 || len(e.Prefix) > len(r.entries[best].Prefix) {
			best = i
		}
	}
	if best < 0 {
		return Requirement{Prefix: p}, false
	}
	return r.entries[best], true
}

// IsPublic reports whether p needs no credential.
func (r Routes) IsPublic(p string) bool {
	req, _ := r.Match(p)
	return req.Public
}

// Clean normalizes a request path: a leading slash, no trailing slash, no
// dot segments.
func Clean(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func covers(prefix, p string) bool {
	if prefix == "/" {
		return p == "/"
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}
