package gateway

import (
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"umclient/internal/gateway/guard"
)

// NewRouter builds the gin engine: logging and recovery, the route guard in
// front of everything, the cookie-maintaining auth endpoints, and a reverse
// proxy for the rest.
func NewRouter(logger *zap.Logger, cfg *Config) (*gin.Engine, error) {
	backend, err := url.Parse(cfg.BackendURL)
	if err != nil {
		return nil, err
	}

	g := guard.Config{
		Protected:   cfg.ProtectedPrefixes,
		AuthOnly:    cfg.AuthOnlyPrefixes,
		LoginPath:   cfg.LoginPath,
		LandingPath: cfg.LandingPath,
	}

	h := newAuthHandler(logger, cfg)

	r := gin.New()
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), guard.Middleware(g))

	auth := r.Group("/auth")
	auth.POST("/login", h.Login)
	auth.POST("/refresh", h.Refresh)
	auth.POST("/logout", h.Logout)

	proxy := httputil.NewSingleHostReverseProxy(backend)
	r.NoRoute(func(c *gin.Context) {
		proxy.ServeHTTP(c.Writer, c.Request)
	})

	return r, nil
}

// zapLoggerMiddleware logs one structured line per request.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
