// Package api is the typed REST client for the user-management backend.
// Every call goes through an explicit round-tripper pipeline that attaches
// the bearer credential and transparently recovers once from token expiry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"umclient/internal/logging"
	"umclient/internal/models"
)

// DefaultTimeout bounds every outbound call, including the retry.
const DefaultTimeout = 30 * time.Second

// DefaultLoginPath is where terminated sessions are pointed back to.
const DefaultLoginPath = "/login"

// Client is the REST client. Construct with New; the zero value is not
// usable.
type Client struct {
	baseURL   string
	http      *http.Client
	tokens    TokenSource
	loginPath string
	log       logging.Logger
}

// Option configures a Client.
type Option func(*settings)

type settings struct {
	timeout   time.Duration
	loginPath string
	base      http.RoundTripper
	log       logging.Logger
}

// WithTimeout overrides the fixed per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.timeout = d }
}

// WithLoginPath overrides the login path used in session-terminated signals.
func WithLoginPath(p string) Option {
	return func(s *settings) { s.loginPath = p }
}

// WithBaseTransport swaps the bottom of the pipeline; tests use it to plug
// in recorded transports.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(s *settings) { s.base = rt }
}

// WithLogger attaches a logger for warn-level diagnostics.
func WithLogger(l logging.Logger) Option {
	return func(s *settings) { s.log = l }
}

// New builds a Client for the backend at baseURL, reading and writing
// tokens through the given source (normally the session store).
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	s := settings{
		timeout:   DefaultTimeout,
		loginPath: DefaultLoginPath,
		base:      http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&s)
	}

	baseURL = strings.TrimRight(baseURL, "/")
	refreshClient := &http.Client{Timeout: s.timeout, Transport: s.base}

	transport := Chain(s.base,
		RefreshRetry(tokens, baseURL+"/auth/refresh", s.loginPath, refreshClient),
		Bearer(tokens),
	)

	return &Client{
		baseURL:   baseURL,
		http:      &http.Client{Timeout: s.timeout, Transport: transport},
		tokens:    tokens,
		loginPath: s.loginPath,
		log:       s.log,
	}
}

// ---- auth ----

// Login exchanges credentials for a user plus token pair. Storing the
// result in the session store is the caller's decision.
func (c *Client) Login(ctx context.Context, email, password, deviceID, deviceName string) (models.LoginResponse, error) {
	var out models.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", models.LoginRequest{
		Email:      email,
		Password:   password,
		DeviceID:   deviceID,
		DeviceName: deviceName,
	}, &out)
	return out, err
}

// Logout invalidates the current backend session, or every device session
// when allDevices is set.
func (c *Client) Logout(ctx context.Context, allDevices bool) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", models.LogoutRequest{AllDevices: allDevices}, nil)
}

// ---- profile ----

// Me fetches the authoritative profile of the current user.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodGet, "/users/me", nil, &out)
	return out, err
}

// UpdateMe patches the current user's profile.
func (c *Client) UpdateMe(ctx context.Context, patch models.UserPatch) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPatch, "/users/me", patch, &out)
	return out, err
}

// ChangePassword rotates the current user's password.
func (c *Client) ChangePassword(ctx context.Context, current, newPassword string) error {
	return c.do(ctx, http.MethodPost, "/users/me/password", models.PasswordChangeRequest{
		CurrentPassword: current,
		NewPassword:     newPassword,
	}, nil)
}

// ---- users (admin) ----

// ListUsersParams filters and paginates GET /users.
type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
	Status   string
}

func (c *Client) ListUsers(ctx context.Context, p ListUsersParams) (models.UserList, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}

	path := "/users"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.UserList
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, in models.UserCreate) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPost, "/users", in, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error) {
	var out models.User
	err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), patch, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

// ---- notifications ----

func (c *Client) Notifications(ctx context.Context, unreadOnly bool, page, pageSize int) (models.NotificationList, error) {
	q := url.Values{}
	if unreadOnly {
		q.Set("unread_only", "true")
	}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}

	path := "/notifications"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out models.NotificationList
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) MarkNotificationsRead(ctx context.Context, ids []string) error {
	body := struct {
		NotificationIDs []string `json:"notification_ids"`
	}{NotificationIDs: ids}
	return c.do(ctx, http.MethodPost, "/notifications/read", body, nil)
}

// MarkAllNotificationsRead returns the number of notifications affected.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	var out struct {
		MarkedCount int `json:"marked_count"`
	}
	err := c.do(ctx, http.MethodPost, "/notifications/read-all", nil, &out)
	return out.MarkedCount, err
}

// ---- sessions ----

func (c *Client) Sessions(ctx context.Context) (models.SessionList, error) {
	var out models.SessionList
	err := c.do(ctx, http.MethodGet, "/sessions", nil, &out)
	return out, err
}

func (c *Client) RevokeSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil)
}

func (c *Client) RevokeAllSessions(ctx context.Context, exceptCurrent bool) error {
	body := struct {
		ExceptCurrent bool `json:"except_current"`
	}{ExceptCurrent: exceptCurrent}
	return c.do(ctx, http.MethodPost, "/sessions/revoke-all", body, nil)
}

// ---- statistics ----

func (c *Client) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	var out models.DashboardStats
	err := c.do(ctx, http.MethodGet, "/statistics/dashboard", nil, &out)
	return out, err
}

// ---- plumbing ----

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return c.classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return newAPIError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// classify unwraps transport-level failures into the error taxonomy:
// session-terminated signals pass through as-is, everything else without a
// response is a connectivity error.
func (c *Client) classify(ctx context.Context, err error) error {
	var terminated *SessionTerminatedError
	if errors.As(err, &terminated) {
		if c.log != nil {
			c.log.Warn(ctx, "session terminated", "redirect", terminated.RedirectTo)
		}
		return terminated
	}
	if errors.Is(err, ErrConnectivity) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrConnectivity, err)
}
