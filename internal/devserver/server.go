package devserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"umclient/internal/common"
	"umclient/internal/models"
)

// Server is the stub backend.
type Server struct {
	logger *zap.Logger
	cfg    *Config
	tokens *TokenService
	world  *world
}

// New builds a Server. A nil store falls back to process memory.
func New(logger *zap.Logger, cfg *Config, store RefreshTokenStore) *Server {
	return &Server{
		logger: logger,
		cfg:    cfg,
		tokens: NewTokenService(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL, cfg.RotateRefresh, store),
		world:  newWorld(),
	}
}

// Router wires every endpoint of the wire contract.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/auth/login", s.login)
	r.POST("/auth/refresh", s.refresh)
	r.POST("/auth/logout", s.logout)

	authed := r.Group("/", s.requireAccessToken())
	authed.GET("/users/me", s.me)
	authed.PATCH("/users/me", s.updateMe)
	authed.POST("/users/me/password", s.changePassword)

	authed.GET("/users", s.listUsers)
	authed.POST("/users", s.createUser)
	authed.GET("/users/:id", s.getUser)
	authed.PATCH("/users/:id", s.updateUser)
	authed.DELETE("/users/:id", s.deleteUser)

	authed.GET("/notifications", s.notifications)
	authed.POST("/notifications/read", s.markNotificationsRead)
	authed.POST("/notifications/read-all", s.markAllNotificationsRead)

	authed.GET("/sessions", s.sessions)
	authed.DELETE("/sessions/:id", s.revokeSession)
	authed.POST("/sessions/revoke-all", s.revokeAllSessions)

	authed.GET("/statistics/dashboard", s.dashboardStats)

	return r
}

const contextUserIDKey = "uid"

// requireAccessToken rejects requests without a valid bearer access token
// and stows the caller's user id in the gin context.
func (s *Server) requireAccessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeader)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorBody{Detail: "missing bearer token"})
			return
		}
		claims, err := s.tokens.ParseAccess(strings.TrimPrefix(header, common.BearerPrefix))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorBody{Detail: "invalid or expired token"})
			return
		}
		c.Set(contextUserIDKey, claims.UserID)
		c.Next()
	}
}

func (s *Server) currentUser(c *gin.Context) (models.User, bool) {
	id := c.GetString(contextUserIDKey)
	return s.world.userByID(id)
}

// ---- auth ----

func (s *Server) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorBody{Detail: "invalid request body"})
		return
	}

	user, ok := s.world.authenticate(req.Email, req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorBody{Detail: "invalid email or password"})
		return
	}

	pair, err := s.tokens.GeneratePair(user)
	if err != nil {
		s.logger.Error("issuing tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorBody{Detail: "cannot issue tokens"})
		return
	}
	s.world.addSession(user.ID, req.DeviceID, req.DeviceName, s.cfg.RefreshTTL)

	c.JSON(http.StatusOK, models.LoginResponse{User: user, Tokens: pair})
}

func (s *Server) refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorBody{Detail: "refresh token required"})
		return
	}

	out, err := s.tokens.Refresh(req.RefreshToken, s.world.userByID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorBody{Detail: "refresh token invalid or expired"})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) logout(c *gin.Context) {
	var req models.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	// Logout revokes by refresh token when the client supplies one via
	// cookie; a bare logout still succeeds.
	if refresh, err := c.Cookie(common.RefreshTokenCookieName); err == nil && refresh != "" {
		if err := s.tokens.Revoke(refresh, req.AllDevices); err != nil {
			s.logger.Debug("logout revoke", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// ---- profile ----

func (s *Server) me(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorBody{Detail: "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) updateMe(c *gin.Context) {
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorBody{Detail: "invalid request body"})
		return
	}
	user, ok := s.world.patchUser(c.GetString(contextUserIDKey), patch)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorBody{Detail: "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) changePassword(c *gin.Context) {
	var req models.PasswordChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, models.ErrorBody{Detail: "invalid request body"})
		return
	}
	uid := c.GetString(contextUserIDKey)
	if !s.world.checkPassword(uid, req.CurrentPassword) {
		c.JSON(http.StatusUnauthorized, models.ErrorBody{Detail: "current password is incorrect"})
		return
	}
	s.world.setPassword(uid, req.NewPassword)
	c.JSON(http.StatusOK, gin.H{"status": "password_changed"})
}

// ---- users ----

func (s *Server) listUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	c.JSON(http.StatusOK, s.world.listUsers(page, pageSize, c.Query("search"), c.Query("status")))
}

func (s *Server) getUser(c *gin.Context) {
	user, ok := s.world.userByID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorBody{Detail: "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) createUser(c *gin.Context) {
	var in models.UserCreate
	if err := c.ShouldBindJSON(&in); err != nil || in.Email == "" {
		c.JSON(http.StatusBadRequest, models.ErrorBody{Detail: "email is required"})
		return
	}
	c.JSON(http.StatusCreated, s.world.createUser(in))
}

func (s *Server) updateUser(c *gin.Context) {
	var patch models.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorBody{Detail: "invalid request body"})
		return
	}
	user, ok := s.world.patchUser(c.Param("id"), patch)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorBody{Detail: "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) deleteUser(c *gin.Context) {
	if !s.world.deleteUser(c.Param("id")) {
		c.JSON(http.StatusNotFound, models.ErrorBody{Detail: "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ---- notifications ----

func (s *Server) notifications(c *gin.Context) {
	unreadOnly := c.Query("unread_only") == "true"
	c.JSON(http.StatusOK, s.world.listNotifications(c.GetString(contextUserIDKey), unreadOnly))
}

func (s *Server) markNotificationsRead(c *gin.Context) {
	var req struct {
		NotificationIDs []string `json:"notification_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorBody{Detail: "invalid request body"})
		return
	}
	marked := s.world.markNotificationsRead(c.GetString(contextUserIDKey), req.NotificationIDs)
	c.JSON(http.StatusOK, gin.H{"marked_count": marked})
}

func (s *Server) markAllNotificationsRead(c *gin.Context) {
	marked := s.world.markNotificationsRead(c.GetString(contextUserIDKey), nil)
	c.JSON(http.StatusOK, gin.H{"marked_count": marked})
}

// ---- sessions ----

func (s *Server) sessions(c *gin.Context) {
	c.JSON(http.StatusOK, s.world.listSessions(c.GetString(contextUserIDKey)))
}

func (s *Server) revokeSession(c *gin.Context) {
	if !s.world.revokeSession(c.GetString(contextUserIDKey), c.Param("id")) {
		c.JSON(http.StatusNotFound, models.ErrorBody{Detail: "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

func (s *Server) revokeAllSessions(c *gin.Context) {
	var req struct {
		ExceptCurrent bool `json:"except_current"`
	}
	_ = c.ShouldBindJSON(&req)
	s.world.revokeAllSessions(c.GetString(contextUserIDKey), req.ExceptCurrent)
	c.JSON(http.StatusOK, gin.H{"status": "revoked"})
}

// ---- statistics ----

func (s *Server) dashboardStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.world.dashboardStats())
}
