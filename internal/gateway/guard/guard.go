// Package guard is the edge route gate: it runs before any page or proxy
// handling and decides allow-or-redirect from nothing but the requested path
// and the presence of the access-token cookie. It is advisory only; token
// signature and expiry stay the backend's job on every API call; the gate
// merely avoids rendering obviously-wrong screens.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"umclient/internal/common"
)

// Config classifies paths into a protected set and an auth-only set. The
// two sets must be disjoint; anything matching neither is always allowed.
type Config struct {
	Protected   []string
	AuthOnly    []string
	LoginPath   string
	LandingPath string
}

// Default returns the product's standard prefix sets.
func Default() Config {
	return Config{
		Protected:   []string{"/dashboard", "/profile", "/settings", "/admin"},
		AuthOnly:    []string{"/login", "/register", "/forgot-password"},
		LoginPath:   "/login",
		LandingPath: "/dashboard",
	}
}

// Decision is the outcome of one gate evaluation.
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Decide applies the decision table:
//
//	protected + no cookie  -> redirect to login with the path as ?redirect
//	protected + cookie     -> allow
//	auth-only + cookie     -> redirect to the authenticated landing page
//	auth-only + no cookie  -> allow
//	neither                -> allow
func (c Config) Decide(path string, hasToken bool) Decision {
	switch {
	case matchesPrefix(path, c.Protected):
		if hasToken {
			return Decision{Allow: true}
		}
		q := url.Values{"redirect": {path}}
		return Decision{RedirectTo: c.LoginPath + "?" + q.Encode()}
	case matchesPrefix(path, c.AuthOnly):
		if hasToken {
			return Decision{RedirectTo: c.LandingPath}
		}
		return Decision{Allow: true}
	default:
		return Decision{Allow: true}
	}
}

// Middleware evaluates the gate on every request, redirecting before any
// downstream handler runs.
func Middleware(cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(common.AccessTokenCookieName)
		hasToken := err == nil && token != ""

		d := cfg.Decide(c.Request.URL.Path, hasToken)
		if d.Allow {
			c.Next()
			return
		}
		c.Redirect(http.StatusFound, d.RedirectTo)
		c.Abort()
	}
}

func matchesPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
