package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/sync/singleflight"

	"umclient/internal/common"
	"umclient/internal/models"
)

// TokenSource is the slice of the credential store the transport needs:
// reading the current pair, installing a refreshed pair, and clearing the
// session on terminal failure. *session.Store satisfies it.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(accessToken, refreshToken string)
	Logout()
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Stage is one decorator in the request pipeline.
type Stage func(http.RoundTripper) http.RoundTripper

// Chain wraps base with the given stages; the first stage becomes the
// outermost one.
func Chain(base http.RoundTripper, stages ...Stage) http.RoundTripper {
	rt := base
	for i := len(stages) - 1; i >= 0; i-- {
		rt = stages[i](rt)
	}
	return rt
}

// Bearer attaches the current access token, when present, as a bearer
// credential. The request is cloned; body and method are never mutated.
func Bearer(tokens TokenSource) Stage {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if tok := tokens.AccessToken(); tok != "" {
				req = req.Clone(req.Context())
				req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+tok)
			}
			return next.RoundTrip(req)
		})
	}
}

// returnPathKey carries the user-visible path to come back to after a forced
// re-login. The gateway sets it from the inbound request; the CLI leaves it
// unset.
type ctxKey int

const returnPathKey ctxKey = iota

// WithReturnPath records the current user-visible path on the context so a
// session-terminated signal can carry a redirect target.
func WithReturnPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, returnPathKey, path)
}

func returnPathFrom(ctx context.Context) string {
	if v, ok := ctx.Value(returnPathKey).(string); ok {
		return v
	}
	return ""
}

// RefreshRetry recovers exactly once from an authorization failure: on 401
// it exchanges the refresh token for a new pair, installs it in the token
// source, and resubmits the original request. The resubmission's outcome is
// returned unmodified, even if it is another 401. Every other failure mode
// passes through untouched.
//
// Concurrent expiries are coalesced: simultaneous 401s holding the same
// refresh token share one in-flight refresh call. Retry accounting stays
// per original request, so no logical call ever makes a third attempt.
func RefreshRetry(tokens TokenSource, refreshURL, loginPath string, refreshClient *http.Client) Stage {
	if refreshClient == nil {
		refreshClient = http.DefaultClient
	}
	var group singleflight.Group

	terminate := func(ctx context.Context, cause error) error {
		tokens.Logout()
		return &SessionTerminatedError{
			RedirectTo: loginRedirect(loginPath, returnPathFrom(ctx)),
			Cause:      cause,
		}
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				// No response at all: connectivity-class, never retried.
				return nil, fmt.Errorf("%w: %v", ErrConnectivity, err)
			}
			if resp.StatusCode != http.StatusUnauthorized {
				return resp, nil
			}

			refreshToken := tokens.RefreshToken()
			if refreshToken == "" {
				resp.Body.Close()
				return nil, terminate(req.Context(), common.ErrUnauthorized)
			}

			// Coalesce concurrent refreshes keyed by the token being spent:
			// a second 401 arriving after rotation starts a fresh exchange.
			_, refreshErr, _ := group.Do(refreshToken, func() (any, error) {
				return nil, refreshPair(req.Context(), refreshClient, refreshURL, refreshToken, tokens)
			})
			if refreshErr != nil {
				resp.Body.Close()
				return nil, terminate(req.Context(), refreshErr)
			}

			resp.Body.Close()
			retry, err := replayableRequest(req)
			if err != nil {
				return nil, terminate(req.Context(), err)
			}
			// Single retry; the bearer stage below attaches the new token.
			return next.RoundTrip(retry)
		})
	}
}

// refreshPair calls the token-refresh endpoint and installs the new pair.
// When the backend does not rotate the refresh token, the previous one is
// kept, refresh tokens are not always reissued.
func refreshPair(ctx context.Context, client *http.Client, refreshURL, refreshToken string, tokens TokenSource) error {
	payload, err := json.Marshal(models.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, refreshURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh rejected: status %d", resp.StatusCode)
	}

	var out models.RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return fmt.Errorf("refresh response missing access token")
	}

	newRefresh := out.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	tokens.SetTokens(out.AccessToken, newRefresh)
	return nil
}

// replayableRequest rebuilds the original request for the single retry.
// Requests built by the client carry GetBody, so the body can be reopened.
func replayableRequest(req *http.Request) (*http.Request, error) {
	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	return retry, nil
}

// loginRedirect computes where the application layer should send the user
// after a terminated session. Empty when there is no captured path (no
// browsing context) or the user is already on the login screen.
func loginRedirect(loginPath, returnPath string) string {
	if returnPath == "" || returnPath == loginPath {
		return ""
	}
	q := url.Values{"redirect": {returnPath}}
	return loginPath + "?" + q.Encode()
}
