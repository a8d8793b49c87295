// Package cookies mirrors the credential store's token pair into the two
// cookies the edge route guard reads. The cookies are a read-optimized copy
// of the store, never the source of truth.
package cookies

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"umclient/internal/common"
)

// DefaultMaxAge is the fallback cookie lifetime when the token carries no
// usable expiry of its own.
const DefaultMaxAge = 7 * 24 * time.Hour

// Setter receives the cookies the mirror produces. An http.ResponseWriter
// wrapped with ResponseSetter qualifies, as does a test recorder.
type Setter interface {
	SetCookie(c *http.Cookie)
}

// Mirror writes access_token / refresh_token cookies through a Setter.
// A nil Setter turns every operation into a silent no-op, which covers
// contexts where no cookie surface exists yet.
type Mirror struct {
	setter Setter
	secure bool
	maxAge time.Duration
	now    func() time.Time
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithSecure marks produced cookies Secure; enable in production-like
// environments only.
func WithSecure(secure bool) Option {
	return func(m *Mirror) { m.secure = secure }
}

// WithMaxAge overrides the fallback cookie lifetime.
func WithMaxAge(d time.Duration) Option {
	return func(m *Mirror) { m.maxAge = d }
}

func New(setter Setter, opts ...Option) *Mirror {
	m := &Mirror{setter: setter, maxAge: DefaultMaxAge, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sync writes each cookie when its token is non-empty and deletes it when
// empty, keeping cookie presence in step with the store within one call.
func (m *Mirror) Sync(accessToken, refreshToken string) {
	if m.setter == nil {
		return
	}
	m.setter.SetCookie(m.cookie(common.AccessTokenCookieName, accessToken))
	m.setter.SetCookie(m.cookie(common.RefreshTokenCookieName, refreshToken))
}

// Clear deletes both cookies unconditionally.
func (m *Mirror) Clear() {
	if m.setter == nil {
		return
	}
	m.setter.SetCookie(m.cookie(common.AccessTokenCookieName, ""))
	m.setter.SetCookie(m.cookie(common.RefreshTokenCookieName, ""))
}

func (m *Mirror) cookie(name, value string) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
		Secure:   m.secure,
		HttpOnly: false,
	}
	if value == "" {
		c.MaxAge = -1
		return c
	}
	c.MaxAge = int(m.maxAgeFor(value).Seconds())
	return c
}

// maxAgeFor derives the cookie lifetime from the token's own exp claim when
// the token is a parseable JWT, so the cookie cannot outlive a token the
// backend already considers expired. Tokens without a usable expiry get the
// fixed fallback window.
func (m *Mirror) maxAgeFor(token string) time.Duration {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return m.maxAge
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return m.maxAge
	}
	ttl := exp.Sub(m.now())
	if ttl <= 0 {
		return m.maxAge
	}
	return ttl
}

// ResponseSetter adapts an http.ResponseWriter into a Setter.
type ResponseSetter struct {
	W http.ResponseWriter
}

func (r ResponseSetter) SetCookie(c *http.Cookie) {
	http.SetCookie(r.W, c)
}
