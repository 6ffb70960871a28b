package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT is returned for credentials that are not JSON Web Tokens. Such
// credentials are still valid; they are opaque to the portal.
var ErrNotJWT = errors.New("credential is not a JWT")

// Claims is the part of a backend access token the portal reads.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseUnverified decodes the claims of a backend JWT. The signature is not
// checked; the backend verifies its own tokens on every call.
func ParseUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Join(ErrNotJWT, err)
	}
	return claims, nil
}

// TokenTTL returns how long token remains valid at now according to its exp
// claim. Opaque tokens, tokens without exp and expired tokens yield 0.
func TokenTTL(token string, now time.Time) time.Duration {
	claims, err := ParseUnverified(token)
	if err != nil || claims.ExpiresAt == nil {
		return 0
	}
	ttl := claims.ExpiresAt.Time.Sub(now)
	if ttl <= 0 {
		return 0
	}
	return ttl
}
