// internal/pkg/token/verifier.go
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	xerrors "volante-service/internal/pkg/errors"
)

type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

func NewVerifier(secret []byte, issuer, audience string) *Verifier {
	return &Verifier{
		secret:   secret,
		issuer:   issuer,
		audience: audience,
	}
}

// Verify validates a signed credential and returns its claims. Every failure
// mode (bad signature, malformed payload, expired claim, wrong issuer or
// audience, out-of-range fields) surfaces the same ErrInvalidToken so callers
// cannot be used as an oracle for why a token was rejected.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	claims, err := v.parse(tokenString)
	if err != nil {
		return nil, xerrors.ErrInvalidToken
	}
	return claims, nil
}

func (v *Verifier) parse(tokenString string) (*Claims, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("token verifier has empty signing secret")
	}

	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != v.issuer {
		return nil, fmt.Errorf("invalid issuer: expected %s, got %s", v.issuer, claims.Issuer)
	}
	if !claims.VerifyAudience(v.audience, true) {
		return nil, fmt.Errorf("invalid audience")
	}

	// Validated on decode rather than trusted by shape.
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("missing user id")
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q", claims.Role)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("missing token identifier")
	}

	return claims, nil
}

// IsExpiringSoon reports whether the token's expiry falls within the given
// threshold. It fails open to true on any parse error: prompting the client
// to re-authenticate is the safer default.
func (v *Verifier) IsExpiringSoon(tokenString string, threshold time.Duration) bool {
	claims, err := v.parse(tokenString)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return time.Until(claims.ExpiresAt.Time) <= threshold
}
