package config

import (
	"os"
	"time"
)

const (
	DefaultAPIBaseURL     = "http://localhost:5500/api"
	DefaultDBPath         = "subtrack.db"
	DefaultRequestTimeout = 15 * time.Second
)

// Config holds runtime settings for the SubTrack CLI.
//
// Fields:
//   - APIBaseURL: base address of the remote REST API, including the /api prefix.
//   - DBPath: sqlite file that keeps the session and the dashboard cache.
//   - RequestTimeout: upper bound for a single HTTP round-trip.
//   - LogLevel, LogFormat: slog level name and "text" or "json".
type Config struct {
	APIBaseURL     string
	DBPath         string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = DefaultAPIBaseURL
	c.DBPath = DefaultDBPath
	c.RequestTimeout = DefaultRequestTimeout
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment (optionally seeded from a dotenv file), a JSON file and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	args := os.Args[1:]

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, args)
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
