// Package config loads runtime configuration for the SubTrack CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables, optionally seeded from a dotenv file
//     (-e/-env-file, or ./.env when present).
//  3. Optional JSON file selected via -c or -config.
//  4. Command-line flags, which override earlier values.
//
// Environment variables
//
//	SUBTRACK_API_URL          base API URL (NEXT_PUBLIC_API_URL is accepted as a fallback)
//	SUBTRACK_DB_PATH          sqlite file path
//	SUBTRACK_REQUEST_TIMEOUT  Go duration, e.g. "10s"
//	SUBTRACK_LOG_LEVEL        debug | info | warn | error
//	SUBTRACK_LOG_FORMAT       text | json
//
// Supported flags
//
//	-a string   base API URL
//	-d string   sqlite file path
//	-t int      request timeout (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://localhost:5500/api",
//	  "db_path": "subtrack.db",
//	  "request_timeout": "15s",
//	  "log_level": "info",
//	  "log_format": "text"
//	}
package config
