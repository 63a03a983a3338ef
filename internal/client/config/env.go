package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/subtrack/internal/flagx"
	"github.com/joho/godotenv"
)

const (
	EnvAPIURL         = "SUBTRACK_API_URL"
	EnvPublicAPIURL   = "NEXT_PUBLIC_API_URL"
	EnvDBPath         = "SUBTRACK_DB_PATH"
	EnvRequestTimeout = "SUBTRACK_REQUEST_TIMEOUT"
	EnvLogLevel       = "SUBTRACK_LOG_LEVEL"
	EnvLogFormat      = "SUBTRACK_LOG_FORMAT"
)

// parseEnv overlays cfg with environment variables. An explicit dotenv file
// (-e/-env-file) must load or parseEnv panics; the implicit ./.env is
// optional. Variables already set in the process environment win over the
// dotenv file.
func parseEnv(cfg *Config, args []string) {
	if path := flagx.EnvFileFlag(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else {
		_ = godotenv.Load()
	}

	if v := firstEnv(EnvAPIURL, EnvPublicAPIURL); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		cfg.RequestTimeout = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
