// Package gateway is the network edge of the product: it gates page
// navigation on cookie presence, keeps the token cookies in step with the
// backend's answers, and proxies everything else to the backend untouched.
package gateway

import "github.com/caarlos0/env/v10"

// Config is read from the environment.
type Config struct {
	HTTPPort   string `env:"HTTP_PORT" envDefault:"3000"`
	BackendURL string `env:"BACKEND_URL" envDefault:"http://localhost:8000"`
	Production bool   `env:"PRODUCTION" envDefault:"false"`

	ProtectedPrefixes []string `env:"PROTECTED_PREFIXES" envSeparator:"," envDefault:"/dashboard,/profile,/settings,/admin"`
	AuthOnlyPrefixes  []string `env:"AUTH_ONLY_PREFIXES" envSeparator:"," envDefault:"/login,/register,/forgot-password"`
	LoginPath         string   `env:"LOGIN_PATH" envDefault:"/login"`
	LandingPath       string   `env:"LANDING_PATH" envDefault:"/dashboard"`
}

// LoadConfig parses the gateway configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
