package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend REST endpoint.
//   - StoragePath: file the session record is persisted to.
//   - Passphrase: when non-empty, the session file is encrypted with it.
//   - RequestTimeout: per-request bound, retry included.
type Config struct {
	ServerEndpointAddr string
	StoragePath        string
	Passphrase         string
	RequestTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://localhost:8000"
	c.StoragePath = defaultStoragePath()
	c.RequestTimeout = 30 * time.Second
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".umclient", "session.json")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), environment variables, and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// parseEnv overlays values that should not travel through argv, the
// passphrase above all.
func parseEnv(cfg *Config) {
	if v := os.Getenv("UMCLIENT_SERVER"); v != "" {
		cfg.ServerEndpointAddr = v
	}
	if v := os.Getenv("UMCLIENT_PASSPHRASE"); v != "" {
		cfg.Passphrase = v
	}
}
