package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"postit/internal/app"
	"postit/pkg/config"
	"postit/pkg/logger"
	"postit/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")

	flags, err := config.ParseConfigFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	eff, err := config.LoadEffectiveConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(eff.Config.Logging.Level, eff.Config.Logging.Format)

	verStr := version
	if commit != "none" {
		verStr += " (" + commit + ")"
	}
	if buildDate != "unknown" {
		verStr += " @ " + buildDate
	}

	a, err := app.New(eff, verStr)
	if err != nil {
		shutdown.Abort("app_init_failed", err)
		return
	}
	if err := a.Listen(); err != nil {
		_ = a.Close()
		shutdown.Abort("listen_failed", err)
		return
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		cancel()
		shutdown.Abort("server_error", err)
		return
	}
}
