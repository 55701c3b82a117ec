package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ImageHub/internal/cli/commands"
	"ImageHub/internal/config"
)

// заполняются через -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	cfg := config.NewConfig()

	if cfg.Version {
		fmt.Fprintf(commands.Out, "ImageHub CLI %s (built %s)\n", version, buildDate)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Dispatch(ctx, cfg, flag.Args())
	cancel()
	os.Exit(code)
}
