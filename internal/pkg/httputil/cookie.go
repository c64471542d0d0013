// internal/pkg/httputil/cookie.go
package httputil

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// AuthCookieName is the cookie carrying the signed session credential.
const AuthCookieName = "volante_token"

// SetAuthCookie installs the credential cookie on the response.
func SetAuthCookie(w http.ResponseWriter, token string, expiresAt time.Time, secure bool) {
	cookie := &http.Cookie{
		Name:     AuthCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   secure,
	}

	// SameSite=None requires Secure=true; fall back to Lax for plain HTTP.
	if secure {
		cookie.SameSite = http.SameSiteNoneMode
	} else {
		cookie.SameSite = http.SameSiteLaxMode
	}

	http.SetCookie(w, cookie)
}

// ClearAuthCookie removes the credential cookie.
func ClearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// TokenFromRequest extracts the credential from the auth cookie, falling
// back to an Authorization bearer header.
func TokenFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1], nil
		}
	}

	return "", errors.New("no auth token found in cookie or header")
}
