// internal/pkg/token/generator.go
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// DefaultTTL bounds credential exposure when the caller does not supply a
// session timeout of its own.
const DefaultTTL = 2 * time.Hour

type Generator struct {
	secret   []byte
	issuer   string
	audience string
	Ttl      time.Duration
}

func NewGenerator(secret []byte, issuer, audience string, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
		Ttl:      ttl,
	}
}

// NewTokenID mints a fresh per-login token identifier.
func NewTokenID() string {
	return ulid.Make().String()
}

// Issue signs a credential for the given account and session. A fresh ULID is
// minted as the token identifier and returned alongside the signed string so
// the caller can mirror it into the session row.
func (g *Generator) Issue(userID int64, email string, role Role, sessionID int64, ttl time.Duration) (string, string, error) {
	tokenID := NewTokenID()
	signed, err := g.IssueWithID(tokenID, userID, email, role, sessionID, ttl)
	return signed, tokenID, err
}

// IssueWithID signs a credential carrying a caller-supplied token identifier.
// Used when the identifier must exist before the session row does.
func (g *Generator) IssueWithID(tokenID string, userID int64, email string, role Role, sessionID int64, ttl time.Duration) (string, error) {
	if len(g.secret) == 0 {
		return "", fmt.Errorf("token generator has empty signing secret")
	}
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := time.Now()
	if ttl <= 0 {
		ttl = g.Ttl
	}

	claims := &Claims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    g.issuer,
			Subject:   fmt.Sprintf("%d", userID),
			Audience:  []string{g.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        tokenID,
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(g.secret)
}
