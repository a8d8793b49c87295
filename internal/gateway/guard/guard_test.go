package guard

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umclient/internal/common"
)

func TestDecide_Table(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name     string
		path     string
		hasToken bool
		allow    bool
		redirect string // expected redirect path (query checked separately)
	}{
		{"protected without cookie", "/dashboard", false, false, "/login"},
		{"protected with cookie", "/dashboard", true, true, ""},
		{"auth-only with cookie", "/login", true, false, "/dashboard"},
		{"auth-only without cookie", "/login", false, true, ""},
		{"neither with cookie", "/about", true, true, ""},
		{"neither without cookie", "/about", false, true, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := cfg.Decide(tc.path, tc.hasToken)
			assert.Equal(t, tc.allow, d.Allow)
			if tc.allow {
				assert.Empty(t, d.RedirectTo)
				return
			}
			loc, err := url.Parse(d.RedirectTo)
			require.NoError(t, err)
			assert.Equal(t, tc.redirect, loc.Path)
		})
	}
}

func TestDecide_RedirectCarriesOriginalPath(t *testing.T) {
	d := Default().Decide("/dashboard", false)

	loc, err := url.Parse(d.RedirectTo)
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/dashboard", loc.Query().Get("redirect"))
}

func TestDecide_PrefixCoversSubpaths(t *testing.T) {
	cfg := Default()

	assert.False(t, cfg.Decide("/dashboard/users/42", false).Allow)
	assert.False(t, cfg.Decide("/admin/audit", false).Allow)
	assert.True(t, cfg.Decide("/admin/audit", true).Allow)
}

func newGuardedRouter(cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(cfg))
	r.GET("/*any", func(c *gin.Context) {
		c.String(http.StatusOK, "page")
	})
	return r
}

func TestMiddleware_RedirectsWithoutCookie(t *testing.T) {
	r := newGuardedRouter(Default())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/dashboard", loc.Query().Get("redirect"))
}

func TestMiddleware_AllowsWithCookie(t *testing.T) {
	r := newGuardedRouter(Default())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: common.AccessTokenCookieName, Value: "tok"})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_AuthOnlyWithCookieGoesToLanding(t *testing.T) {
	r := newGuardedRouter(Default())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: common.AccessTokenCookieName, Value: "tok"})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestMiddleware_EmptyCookieCountsAsAbsent(t *testing.T) {
	r := newGuardedRouter(Default())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: common.AccessTokenCookieName, Value: ""})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
}
