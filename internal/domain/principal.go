package domain

import "strings"

// Role enumerates the principal roles the portal knows about.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role belongs to the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// NormalizeRole lower-cases a backend role and defaults an empty one to user.
func NormalizeRole(raw string) Role {
	role := strings.ToLower(strings.TrimSpace(raw))
	if role == "" {
		return RoleUser
	}
	return Role(role)
}

// Principal is the cached view of the authenticated user.
// Email, Mobile, Username and AvatarURL are nullable.
type Principal struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     *string `json:"email"`
	Mobile    *string `json:"mobile,omitempty"`
	Username  *string `json:"username,omitempty"`
	Role      Role    `json:"role"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

// Clone returns a deep copy so callers never share optional field pointers.
func (p *Principal) Clone() *Principal {
	if p == nil {
		return nil
	}
	out := *p
	out.Email = cloneString(p.Email)
	out.Mobile = cloneString(p.Mobile)
	out.Username = cloneString(p.Username)
	out.AvatarURL = cloneString(p.AvatarURL)
	return &out
}

// Merge overlays fresh over cached. Fields present in fresh win; absent
// optional fields keep the cached value.
func Merge(cached, fresh *Principal) *Principal {
	if fresh == nil {
		return cached.Clone()
	}
	if cached == nil {
		return fresh.Clone()
	}
	out := cached.Clone()
	if fresh.ID != "" {
		out.ID = fresh.ID
	}
	if fresh.Name != "" {
		out.Name = fresh.Name
	}
	if fresh.Role != "" {
		out.Role = fresh.Role
	}
	if fresh.Email != nil {
		out.Email = cloneString(fresh.Email)
	}
	if fresh.Mobile != nil {
		out.Mobile = cloneString(fresh.Mobile)
	}
	if fresh.Username != nil {
		out.Username = cloneString(fresh.Username)
	}
	if fresh.AvatarURL != nil {
		out.AvatarURL = cloneString(fresh.AvatarURL)
	}
	return out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
