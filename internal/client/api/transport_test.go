package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"umclient/internal/models"
)

// fakeTokens is an in-memory TokenSource for transport tests.
type fakeTokens struct {
	mu        sync.Mutex
	access    string
	refresh   string
	logouts   int
	setTokens int
}

func (f *fakeTokens) AccessToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.access
}

func (f *fakeTokens) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refresh
}

func (f *fakeTokens) SetTokens(access, refresh string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = access
	f.refresh = refresh
	f.setTokens++
}

func (f *fakeTokens) Logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = ""
	f.refresh = ""
	f.logouts++
}

// backend is a scriptable httptest server tracking per-path hit counts.
type backend struct {
	srv     *httptest.Server
	mu      sync.Mutex
	hits    map[string]int
	handler http.HandlerFunc
}

func newBackend(handler http.HandlerFunc) *backend {
	b := &backend{hits: make(map[string]int), handler: handler}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		b.mu.Unlock()
		b.handler(w, r)
	}))
	return b
}

func (b *backend) hitCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, baseURL string, tokens TokenSource) *Client {
	t.Helper()
	return New(baseURL, tokens, WithTimeout(5*time.Second))
}

func TestBearer_AttachesToken(t *testing.T) {
	var gotAuth string
	b := newBackend(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, models.User{ID: "u-1"})
	})
	defer b.srv.Close()

	tokens := &fakeTokens{access: "acc-1", refresh: "ref-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer acc-1", gotAuth)
}

func TestBearer_NoTokenNoHeader(t *testing.T) {
	var hadAuth bool
	b := newBackend(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		writeJSON(w, http.StatusOK, models.User{})
	})
	defer b.srv.Close()

	c := newTestClient(t, b.srv.URL, &fakeTokens{})

	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.False(t, hadAuth)
}

func TestRefreshRetry_RecoversOnceFrom401(t *testing.T) {
	b := newBackend(nil)
	defer b.srv.Close()

	b.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			var req models.RefreshRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.RefreshToken != "ref-1" {
				writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "bad refresh"})
				return
			}
			writeJSON(w, http.StatusOK, models.RefreshResponse{
				AccessToken:  "acc-2",
				RefreshToken: "ref-2",
				TokenType:    "bearer",
			})
		case "/users/me":
			if r.Header.Get("Authorization") == "Bearer acc-2" {
				writeJSON(w, http.StatusOK, models.User{ID: "u-1"})
				return
			}
			writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "token expired"})
		default:
			http.NotFound(w, r)
		}
	}

	tokens := &fakeTokens{access: "acc-1", refresh: "ref-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	user, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)

	// Original + one retry, one refresh.
	assert.Equal(t, 2, b.hitCount("/users/me"))
	assert.Equal(t, 1, b.hitCount("/auth/refresh"))
	assert.Equal(t, "acc-2", tokens.AccessToken())
	assert.Equal(t, "ref-2", tokens.RefreshToken())
}

func TestRefreshRetry_ExactlyTwoAttemptsWhenAlways401(t *testing.T) {
	b := newBackend(nil)
	defer b.srv.Close()

	b.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			writeJSON(w, http.StatusOK, models.RefreshResponse{AccessToken: "acc-2"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "nope"})
	}

	tokens := &fakeTokens{access: "acc-1", refresh: "ref-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	_, err := c.Me(context.Background())

	// The second failure surfaces as an ordinary API error; never a third try.
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, 2, b.hitCount("/users/me"))
	assert.Equal(t, 1, b.hitCount("/auth/refresh"))
}

func TestRefreshRetry_KeepsRefreshTokenWhenNotRotated(t *testing.T) {
	b := newBackend(nil)
	defer b.srv.Close()

	b.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			// Rotation omitted: no refresh_token in the response.
			writeJSON(w, http.StatusOK, models.RefreshResponse{AccessToken: "acc-2"})
		case "/users/me":
			if r.Header.Get("Authorization") == "Bearer acc-2" {
				writeJSON(w, http.StatusOK, models.User{ID: "u-1"})
				return
			}
			writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "token expired"})
		}
	}

	tokens := &fakeTokens{access: "acc-1", refresh: "ref-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "acc-2", tokens.AccessToken())
	assert.Equal(t, "ref-1", tokens.RefreshToken(), "previous refresh token must survive")
}

func TestRefreshRetry_NoRefreshTokenTerminatesSession(t *testing.T) {
	b := newBackend(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "token expired"})
	})
	defer b.srv.Close()

	tokens := &fakeTokens{access: "acc-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	_, err := c.Me(context.Background())

	require.ErrorIs(t, err, ErrSessionTerminated)
	assert.Equal(t, 1, tokens.logouts)
	assert.Equal(t, 1, b.hitCount("/users/me"), "no retry without a refresh token")
}

func TestRefreshRetry_FailedRefreshTerminatesWithRedirect(t *testing.T) {
	b := newBackend(nil)
	defer b.srv.Close()

	b.handler = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "refresh expired"})
			return
		}
		writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "token expired"})
	}

	tokens := &fakeTokens{access: "acc-1", refresh: "ref-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	ctx := WithReturnPath(context.Background(), "/dashboard")
	_, err := c.Me(ctx)

	var terminated *SessionTerminatedError
	require.ErrorAs(t, err, &terminated)
	assert.Equal(t, 1, tokens.logouts)

	loc, parseErr := url.Parse(terminated.RedirectTo)
	require.NoError(t, parseErr)
	assert.Equal(t, "/login", loc.Path)
	assert.Equal(t, "/dashboard", loc.Query().Get("redirect"))
}

func TestRefreshRetry_NoRedirectLoopOnLoginPath(t *testing.T) {
	b := newBackend(nil)
	defer b.srv.Close()

	b.handler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "nope"})
	}

	tokens := &fakeTokens{access: "acc-1", refresh: "ref-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	ctx := WithReturnPath(context.Background(), "/login")
	_, err := c.Me(ctx)

	var terminated *SessionTerminatedError
	require.ErrorAs(t, err, &terminated)
	assert.Empty(t, terminated.RedirectTo, "already on login: no second navigation")
}

func TestRefreshRetry_CoalescesConcurrentRefreshes(t *testing.T) {
	var refreshes atomic.Int64
	release := make(chan struct{})

	b := newBackend(nil)
	defer b.srv.Close()

	b.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshes.Add(1)
			<-release
			writeJSON(w, http.StatusOK, models.RefreshResponse{
				AccessToken:  "acc-2",
				RefreshToken: "ref-2",
			})
		default:
			if r.Header.Get("Authorization") == "Bearer acc-2" {
				writeJSON(w, http.StatusOK, models.User{ID: "u-1"})
				return
			}
			writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "token expired"})
		}
	}

	tokens := &fakeTokens{access: "acc-1", refresh: "ref-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	const parallel = 4
	var wg sync.WaitGroup
	errs := make([]error, parallel)
	for i := 0; i < parallel; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Me(context.Background())
		}(i)
	}

	// Let all four hit the 401 and pile up on the shared refresh.
	time.Sleep(200 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int64(1), refreshes.Load(), "concurrent 401s share one refresh")
	assert.Equal(t, 1, tokens.setTokens)
}

func TestConnectivityError(t *testing.T) {
	b := newBackend(func(w http.ResponseWriter, r *http.Request) {})
	b.srv.Close() // nothing listening anymore

	tokens := &fakeTokens{}
	c := newTestClient(t, b.srv.URL, tokens)

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrConnectivity)
	assert.Zero(t, tokens.logouts, "connectivity failures never clear the session")
}

func TestOtherStatusesPropagateUnchanged(t *testing.T) {
	b := newBackend(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, models.ErrorBody{Detail: "insufficient permissions"})
	})
	defer b.srv.Close()

	tokens := &fakeTokens{access: "acc-1", refresh: "ref-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	_, err := c.Me(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "insufficient permissions", apiErr.Message)
	assert.Equal(t, 1, b.hitCount("/users/me"), "no retry on non-401")
}

func TestRetry_ReplaysRequestBody(t *testing.T) {
	var bodies []string
	b := newBackend(nil)
	defer b.srv.Close()

	b.handler = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			writeJSON(w, http.StatusOK, models.RefreshResponse{AccessToken: "acc-2"})
		case "/auth/logout":
			data, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(data))
			if r.Header.Get("Authorization") == "Bearer acc-2" {
				writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
				return
			}
			writeJSON(w, http.StatusUnauthorized, models.ErrorBody{Detail: "token expired"})
		}
	}

	tokens := &fakeTokens{access: "acc-1", refresh: "ref-1"}
	c := newTestClient(t, b.srv.URL, tokens)

	require.NoError(t, c.Logout(context.Background(), true))
	require.Len(t, bodies, 2)
	assert.JSONEq(t, bodies[0], bodies[1], "retry must carry the identical body")
}

func TestChain_OrdersStagesFirstOutermost(t *testing.T) {
	var order []string
	stage := func(name string) Stage {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}
	base := RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		order = append(order, "base")
		return nil, errors.New("stop")
	})

	rt := Chain(base, stage("outer"), stage("inner"))
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	_, _ = rt.RoundTrip(req)

	assert.Equal(t, []string{"outer", "inner", "base"}, order)
}
