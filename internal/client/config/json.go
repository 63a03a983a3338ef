package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/subtrack/internal/flagx"
	"github.com/dmitrijs2005/subtrack/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations go
// through timex.Duration so they may be written as "15s".
type JsonConfig struct {
	APIBaseURL     string         `json:"api_base_url"`
	DBPath         string         `json:"db_path"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	LogLevel       string         `json:"log_level"`
	LogFormat      string         `json:"log_format"`
}

// parseJson overlays cfg with the non-empty values of the JSON file named by
// -c/-config. Without the flag it does nothing. Read or decode failures panic.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.DBPath != "" {
		cfg.DBPath = jc.DBPath
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
}
