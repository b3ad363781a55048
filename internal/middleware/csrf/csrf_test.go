package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Use(Middleware(Config{SkipPaths: []string{"/api/payments/webhook"}}))
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.GET("/form", ok)
	e.POST("/submit", ok)
	e.POST("/api/payments/webhook", ok)
	return e
}

func post(e *echo.Echo, path string, setup func(*http.Request)) int {
	req := httptest.NewRequest(http.MethodPost, path, nil)
	req.Host = "shop.example"
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestSafeMethodIssuesToken(t *testing.T) {
	e := newEcho()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/form", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-CSRF-Token"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "XSRF-TOKEN=")
}

func TestUnsafeMethodRequiresMatchingToken(t *testing.T) {
	e := newEcho()
	withToken := func(header string) func(*http.Request) {
		return func(r *http.Request) {
			r.Header.Set("Origin", "http://shop.example")
			r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
			if header != "" {
				r.Header.Set("X-CSRF-Token", header)
			}
		}
	}

	assert.Equal(t, http.StatusNoContent, post(e, "/submit", withToken("tok")))
	assert.Equal(t, http.StatusForbidden, post(e, "/submit", withToken("other")))
	assert.Equal(t, http.StatusForbidden, post(e, "/submit", withToken("")))
	assert.Equal(t, http.StatusForbidden, post(e, "/submit", func(r *http.Request) {
		r.Header.Set("Origin", "http://evil.example")
		r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
		r.Header.Set("X-CSRF-Token", "tok")
	}))
}

func TestSkipPaths(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, post(newEcho(), "/api/payments/webhook", nil))
}

func TestTrustedOrigins(t *testing.T) {
	e := echo.New()
	e.Use(Middleware(Config{TrustedOrigins: []string{"https://Store.example/"}}))
	e.POST("/submit", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	from := func(origin string) func(*http.Request) {
		return func(r *http.Request) {
			r.Header.Set("Origin", origin)
			r.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "tok"})
			r.Header.Set("X-CSRF-Token", "tok")
		}
	}

	assert.Equal(t, http.StatusNoContent, post(e, "/submit", from("https://store.example")))
	assert.Equal(t, http.StatusForbidden, post(e, "/submit", from("http://store.example")))
	assert.Equal(t, http.StatusForbidden, post(e, "/submit", from("https://other.example")))
}

func TestVerify(t *testing.T) {
	g := New(Config{})
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("Origin", "http://example.com")

	assert.ErrorIs(t, g.verify(req, "tok"), ErrInvalidToken)

	req.Header.Set("X-CSRF-Token", "tok")
	assert.NoError(t, g.verify(req, "tok"))
	assert.ErrorIs(t, g.verify(req, ""), ErrInvalidToken)

	req.Header.Set("Origin", "http://evil.example")
	assert.ErrorIs(t, g.verify(req, "tok"), ErrInvalidOrigin)
	assert.NoError(t, New(Config{AnyOrigin: true}).verify(req, "tok"))
}
