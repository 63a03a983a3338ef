package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/subtrack/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
//	-a string   base API URL
//	-d string   sqlite file path
//	-t int      request timeout in seconds
//	-l string   log level
//
// Only these flags are looked at (see flagx.FilterArgs), so the config file
// and env file flags can share the command line. Parse errors panic.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-t", "-l"})

	fs := flag.NewFlagSet("subtrack", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the SubTrack API")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path to the local sqlite file")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
