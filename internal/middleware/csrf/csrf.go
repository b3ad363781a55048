// Package csrf implements the double-submit cookie check for browser
// originated state changes.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

var (
	ErrInvalidOrigin = errors.New("invalid origin")
	ErrInvalidToken  = errors.New("invalid CSRF token")
)

type Config struct {
	CookieName string
	HeaderName string
	FormField  string

	CookiePath string
	Domain     string
	Secure     bool
	SameSite   http.SameSite
	MaxAge     time.Duration

	// AnyOrigin disables the Origin/Referer check.
	AnyOrigin bool
	// TrustedOrigins are accepted besides the request's own host, e.g. the
	// storefront frontend served from another origin.
	TrustedOrigins []string

	// SkipPaths carry no browser cookie and are authenticated by their
	// signature instead.
	SkipPaths []string
}

func DefaultConfig() Config {
	return Config{
		CookieName: "XSRF-TOKEN",
		HeaderName: "X-CSRF-Token",
		FormField:  "csrf_token",
		CookiePath: "/",
		SameSite:   http.SameSiteLaxMode,
		MaxAge:     24 * time.Hour,
	}
}

// Guard holds a resolved Config.
type Guard struct {
	cfg     Config
	skip    map[string]bool
	trusted map[string]bool
}

func New(cfg Config) *Guard {
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.FormField == "" {
		cfg.FormField = def.FormField
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	g := &Guard{cfg: cfg, skip: map[string]bool{}, trusted: map[string]bool{}}
	for _, p := range cfg.SkipPaths {
		g.skip[p] = true
	}
	for _, o := range cfg.TrustedOrigins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			g.trusted[strings.ToLower(u.Scheme+"://"+u.Host)] = true
		}
	}
	return g
}

// Middleware is New(cfg).Middleware.
func Middleware(cfg Config) echo.MiddlewareFunc {
	return New(cfg).Middleware
}

func (g *Guard) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if g.skip[req.URL.Path] {
			return next(c)
		}

		token, err := g.token(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
		}

		if safeMethod(req.Method) {
			c.Response().Header().Set(g.cfg.HeaderName, token)
			return next(c)
		}

		if err := g.verify(req, token); err != nil {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		c.Set("csrf_token", token)
		return next(c)
	}
}

// token returns the cookie token, issuing a fresh one when absent, and
// refreshes the cookie either way.
func (g *Guard) token(c echo.Context) (string, error) {
	token := ""
	if ck, err := c.Request().Cookie(g.cfg.CookieName); err == nil {
		token = ck.Value
	}
	if token == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		token = base64.RawURLEncoding.EncodeToString(b)
	}

	c.SetCookie(&http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    token,
		Path:     g.cfg.CookiePath,
		Domain:   g.cfg.Domain,
		Secure:   g.cfg.Secure,
		HttpOnly: false,
		MaxAge:   int(g.cfg.MaxAge.Seconds()),
		SameSite: g.cfg.SameSite,
	})
	return token, nil
}

func (g *Guard) verify(req *http.Request, token string) error {
	if !g.cfg.AnyOrigin && !g.originAllowed(req) {
		return ErrInvalidOrigin
	}

	provided := req.Header.Get(g.cfg.HeaderName)
	if provided == "" {
		if err := req.ParseForm(); err == nil {
			provided = req.FormValue(g.cfg.FormField)
		}
	}
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(provided)) != 1 {
		return ErrInvalidToken
	}
	return nil
}

func (g *Guard) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	u, err := url.Parse(origin)
	if origin == "" || err != nil || u.Host == "" {
		return false
	}
	if g.trusted[strings.ToLower(u.Scheme+"://"+u.Host)] {
		return true
	}
	return strings.EqualFold(u.Scheme, requestScheme(r)) && strings.EqualFold(u.Host, r.Host)
}

func safeMethod(m string) bool {
	switch strings.ToUpper(m) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func requestScheme(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
