package gateway

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"umclient/internal/client/cookies"
	"umclient/internal/common"
	"umclient/internal/models"
)

// authHandler forwards the three auth operations to the backend and mirrors
// the resulting token pair into the guard's cookies. The cookies are only a
// copy: the browser-held response body stays the source of truth for the
// front-end's own store.
type authHandler struct {
	logger     *zap.Logger
	backendURL string
	secure     bool
	client     *http.Client
}

func newAuthHandler(logger *zap.Logger, cfg *Config) *authHandler {
	return &authHandler{
		logger:     logger,
		backendURL: strings.TrimRight(cfg.BackendURL, "/"),
		secure:     cfg.Production,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (h *authHandler) mirror(c *gin.Context) *cookies.Mirror {
	return cookies.New(cookies.ResponseSetter{W: c.Writer}, cookies.WithSecure(h.secure))
}

// Login forwards POST /auth/login and, on success, writes both token
// cookies before relaying the backend's body unchanged.
func (h *authHandler) Login(c *gin.Context) {
	status, body, err := h.forward(c, "/auth/login")
	if err != nil {
		h.logger.Warn("login forward failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"detail": "cannot reach server"})
		return
	}

	if status == http.StatusOK {
		var out models.LoginResponse
		if err := json.Unmarshal(body, &out); err == nil {
			h.mirror(c).Sync(out.Tokens.AccessToken, out.Tokens.RefreshToken)
		}
	}
	c.Data(status, "application/json", body)
}

// Refresh forwards POST /auth/refresh. The refresh token may come from the
// request body or, when absent, from the mirror cookie. On success the new
// pair is mirrored; a missing rotated token keeps the previous cookie value.
func (h *authHandler) Refresh(c *gin.Context) {
	raw, _ := io.ReadAll(c.Request.Body)

	var req models.RefreshRequest
	_ = json.Unmarshal(raw, &req)
	if req.RefreshToken == "" {
		if fromCookie, err := c.Cookie(common.RefreshTokenCookieName); err == nil {
			req.RefreshToken = fromCookie
		}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request"})
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(payload))

	status, body, err := h.forward(c, "/auth/refresh")
	if err != nil {
		h.logger.Warn("refresh forward failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"detail": "cannot reach server"})
		return
	}

	switch {
	case status == http.StatusOK:
		var out models.RefreshResponse
		if err := json.Unmarshal(body, &out); err == nil {
			newRefresh := out.RefreshToken
			if newRefresh == "" {
				newRefresh = req.RefreshToken
			}
			h.mirror(c).Sync(out.AccessToken, newRefresh)
		}
	case status == http.StatusUnauthorized:
		// Terminal refresh failure: wipe the mirror so the guard stops
		// admitting navigation that the next API call would reject anyway.
		h.mirror(c).Clear()
	}
	c.Data(status, "application/json", body)
}

// Logout forwards POST /auth/logout and clears both cookies regardless of
// the backend's verdict.
func (h *authHandler) Logout(c *gin.Context) {
	status, body, err := h.forward(c, "/auth/logout")
	h.mirror(c).Clear()
	if err != nil {
		h.logger.Warn("logout forward failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
		return
	}
	c.Data(status, "application/json", body)
}

// forward relays the inbound request body and bearer header to the backend
// path and returns the backend's status and body.
func (h *authHandler) forward(c *gin.Context, path string) (int, []byte, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, h.backendURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth := c.GetHeader(common.AuthorizationHeader); auth != "" {
		req.Header.Set(common.AuthorizationHeader, auth)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, respBody, nil
}
