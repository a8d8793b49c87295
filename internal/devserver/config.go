// Package devserver is a self-contained stand-in for the real backend. It
// speaks the same wire contract (login, refresh, logout, the resource
// endpoints) so the gateway and the CLI can be developed and demoed without
// the production deployment.
package devserver

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config is read from the environment.
type Config struct {
	HTTPPort  string `env:"HTTP_PORT" envDefault:"8000"`
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-only-secret"`

	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"168h"`

	// RotateRefresh controls whether /auth/refresh issues a new refresh
	// token. Turning it off exercises the clients' keep-previous-token path.
	RotateRefresh bool `env:"ROTATE_REFRESH" envDefault:"true"`

	// RedisAddr, when set, backs refresh-token revocation with redis
	// instead of process memory.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
}

// LoadConfig parses the devserver configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
