package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"umclient/internal/models"
)

func newTestServer(t *testing.T, rotate bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &Config{
		JWTSecret:     "test-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		RotateRefresh: rotate,
	}
	return New(zap.NewNop(), cfg, nil).Router()
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func loginAs(t *testing.T, r *gin.Engine, email, password string) models.LoginResponse {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/auth/login", "", models.LoginRequest{
		Email:    email,
		Password: password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestLogin_SeededUser(t *testing.T) {
	r := newTestServer(t, true)

	out := loginAs(t, r, "alice@example.com", "alice123")
	assert.Equal(t, "alice@example.com", out.User.Email)
	assert.NotEmpty(t, out.Tokens.AccessToken)
	assert.NotEmpty(t, out.Tokens.RefreshToken)
	assert.Equal(t, "bearer", out.Tokens.TokenType)
	assert.NotNil(t, out.User.LastLoginAt)
}

func TestLogin_WrongPassword(t *testing.T) {
	r := newTestServer(t, true)

	w := doJSON(r, http.MethodPost, "/auth/login", "", models.LoginRequest{
		Email:    "alice@example.com",
		Password: "nope",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body models.ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "invalid email or password", body.Detail)
}

func TestProtectedEndpoints_RequireToken(t *testing.T) {
	r := newTestServer(t, true)

	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/users/me", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/users", "bogus", nil).Code)
}

func TestMe_ReturnsCurrentUser(t *testing.T) {
	r := newTestServer(t, true)
	login := loginAs(t, r, "alice@example.com", "alice123")

	w := doJSON(r, http.MethodGet, "/users/me", login.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, login.User.ID, me.ID)
}

func TestUpdateMe_PatchesOnlyProvidedFields(t *testing.T) {
	r := newTestServer(t, true)
	login := loginAs(t, r, "alice@example.com", "alice123")

	phone := "+1-555-0100"
	w := doJSON(r, http.MethodPatch, "/users/me", login.Tokens.AccessToken,
		models.UserPatch{Phone: &phone})
	require.Equal(t, http.StatusOK, w.Code)

	var me models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, phone, me.Phone)
	assert.Equal(t, "Alice", me.FirstName, "untouched fields survive")
}

func TestRefresh_RotationOnIssuesNewToken(t *testing.T) {
	r := newTestServer(t, true)
	login := loginAs(t, r, "alice@example.com", "alice123")

	w := doJSON(r, http.MethodPost, "/auth/refresh", "",
		models.RefreshRequest{RefreshToken: login.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	var out models.RefreshResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.NotEmpty(t, out.AccessToken)
	assert.NotEmpty(t, out.RefreshToken)

	// The spent refresh token is gone.
	w = doJSON(r, http.MethodPost, "/auth/refresh", "",
		models.RefreshRequest{RefreshToken: login.Tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_RotationOffOmitsRefreshToken(t *testing.T) {
	r := newTestServer(t, false)
	login := loginAs(t, r, "alice@example.com", "alice123")

	w := doJSON(r, http.MethodPost, "/auth/refresh", "",
		models.RefreshRequest{RefreshToken: login.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "refresh_token")
}

func TestChangePassword_OldOneStopsWorking(t *testing.T) {
	r := newTestServer(t, true)
	login := loginAs(t, r, "bob@example.com", "bob123")

	w := doJSON(r, http.MethodPost, "/users/me/password", login.Tokens.AccessToken,
		models.PasswordChangeRequest{CurrentPassword: "bob123", NewPassword: "better-pass"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/login", "",
		models.LoginRequest{Email: "bob@example.com", Password: "bob123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	loginAs(t, r, "bob@example.com", "better-pass")
}

func TestChangePassword_WrongCurrentRejected(t *testing.T) {
	r := newTestServer(t, true)
	login := loginAs(t, r, "bob@example.com", "bob123")

	w := doJSON(r, http.MethodPost, "/users/me/password", login.Tokens.AccessToken,
		models.PasswordChangeRequest{CurrentPassword: "wrong", NewPassword: "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsers_SearchAndPagination(t *testing.T) {
	r := newTestServer(t, true)
	login := loginAs(t, r, "admin@example.com", "admin123")

	w := doJSON(r, http.MethodGet, "/users?search=alice", login.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list models.UserList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Users, 1)
	assert.Equal(t, "alice@example.com", list.Users[0].Email)

	w = doJSON(r, http.MethodGet, "/users?page=1&page_size=2", login.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Users, 2)
	assert.Equal(t, 3, list.Total)
}

func TestUserCRUD(t *testing.T) {
	r := newTestServer(t, true)
	login := loginAs(t, r, "admin@example.com", "admin123")
	token := login.Tokens.AccessToken

	w := doJSON(r, http.MethodPost, "/users", token, models.UserCreate{
		Email:    "carol@example.com",
		Password: "carol123",
		Username: "carol",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "pending_verification", created.Status)

	status := "active"
	w = doJSON(r, http.MethodPatch, "/users/"+created.ID, token, models.UserPatch{Status: &status})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/users/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "active", fetched.Status)

	require.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/users/"+created.ID, token, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/users/"+created.ID, token, nil).Code)
}

func TestNotifications_UnreadFilterAndMarkAll(t *testing.T) {
	r := newTestServer(t, true)
	login := loginAs(t, r, "alice@example.com", "alice123")
	token := login.Tokens.AccessToken

	w := doJSON(r, http.MethodGet, "/notifications?unread_only=true", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.NotificationList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.UnreadCount)

	w = doJSON(r, http.MethodPost, "/notifications/read-all", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var marked struct {
		MarkedCount int `json:"marked_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &marked))
	assert.Equal(t, 2, marked.MarkedCount)

	w = doJSON(r, http.MethodGet, "/notifications?unread_only=true", token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Zero(t, list.UnreadCount)
	assert.Empty(t, list.Notifications)
}

func TestSessions_LoginCreatesAndRevokeRemoves(t *testing.T) {
	r := newTestServer(t, true)
	loginAs(t, r, "alice@example.com", "alice123")
	login := loginAs(t, r, "alice@example.com", "alice123")
	token := login.Tokens.AccessToken

	w := doJSON(r, http.MethodGet, "/sessions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list models.SessionList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 2, list.Total)

	var other string
	for _, s := range list.Sessions {
		if !s.IsCurrent {
			other = s.ID
		}
	}
	require.NotEmpty(t, other)

	require.Equal(t, http.StatusOK, doJSON(r, http.MethodDelete, "/sessions/"+other, token, nil).Code)

	w = doJSON(r, http.MethodGet, "/sessions", token, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestDashboardStats(t *testing.T) {
	r := newTestServer(t, true)
	login := loginAs(t, r, "admin@example.com", "admin123")

	w := doJSON(r, http.MethodGet, "/statistics/dashboard", login.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 2, stats.StatusBreakdown.Active)
	assert.Equal(t, 1, stats.StatusBreakdown.PendingVerification)
	assert.Len(t, stats.DailyRegistrations, 7)
	assert.NotEmpty(t, stats.RecentUsers)
}
