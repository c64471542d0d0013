// internal/pkg/token/claims.go
package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role is the fixed set of account roles. Anything outside this set is
// rejected at decode time rather than trusted by shape.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleTecnico    Role = "tecnico"
)

// Valid reports whether the role is one of the known account roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleTecnico:
		return true
	}
	return false
}

// Claims is the closed set of fields carried by a signed credential.
// The token identifier lives in RegisteredClaims.ID and is mirrored in the
// session row, binding each token to exactly one store-verifiable session.
type Claims struct {
	UserID    int64  `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SessionID int64  `json:"session_id"`
	jwt.RegisteredClaims
}

// TokenID returns the per-login token identifier embedded in the claims.
func (c *Claims) TokenID() string {
	return c.ID
}

// IsAdmin checks if the claims belong to an administrator account.
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		// If audience is required but missing
		return !required
	}

	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}

	return false
}
