package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/subtrack/internal/buildinfo"
	"github.com/dmitrijs2005/subtrack/internal/client/cli"
	"github.com/dmitrijs2005/subtrack/internal/client/config"
	"github.com/dmitrijs2005/subtrack/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()

	cfg := config.LoadConfig()
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	logger.Debug(ctx, "config loaded", "api", cfg.APIBaseURL, "db", cfg.DBPath, "timeout", cfg.RequestTimeout)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
