package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAuthCookie(t *testing.T) {
	w := httptest.NewRecorder()
	expires := time.Now().Add(8 * time.Hour)
	SetAuthCookie(w, "signed-token", expires, false)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, AuthCookieName, c.Name)
	assert.Equal(t, "signed-token", c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestSetAuthCookieSecure(t *testing.T) {
	w := httptest.NewRecorder()
	SetAuthCookie(w, "signed-token", time.Now().Add(time.Hour), true)

	c := w.Result().Cookies()[0]
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteNoneMode, c.SameSite)
}

func TestClearAuthCookie(t *testing.T) {
	w := httptest.NewRecorder()
	ClearAuthCookie(w)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, AuthCookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("cookie wins over header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: "from-cookie"})
		req.Header.Set("Authorization", "Bearer from-header")

		tok, err := TokenFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "from-cookie", tok)
	})

	t.Run("bearer fallback", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer from-header")

		tok, err := TokenFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "from-header", tok)
	})

	t.Run("bearer is case-insensitive", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "bearer from-header")

		tok, err := TokenFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "from-header", tok)
	})

	t.Run("empty cookie falls through", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: AuthCookieName, Value: ""})
		req.Header.Set("Authorization", "Bearer from-header")

		tok, err := TokenFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "from-header", tok)
	})

	t.Run("nothing present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		_, err := TokenFromRequest(req)
		assert.Error(t, err)
	})
}
