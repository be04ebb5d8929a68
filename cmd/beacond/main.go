// Beacond is the Satviz daemon. It serves the simulation API, streams engine
// events over WebSocket, and exposes Prometheus metrics. Shutdown is handled
// gracefully on SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/jaivanshchawla/Satviz/internal/app"
	"github.com/jaivanshchawla/Satviz/internal/config"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "/etc/satviz/satviz.toml", "Path to config TOML (missing file means defaults)")
		bind       = pflag.String("bind", "", "HTTP bind address (overrides [server] bind)")
		logLevel   = pflag.String("log-level", "", "Log level (overrides [logging] level)")
	)
	pflag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "beacond: config load failed: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger := cfg.Logging.NewLogger(os.Stdout)
	logger.Info("starting", "version", app.Version, "config", *configPath, "model", cfg.Propagator.Model)

	a := app.New(app.Options{
		Logger: logger,
		Cfg:    cfg,
		Bind:   *bind,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Error("beacond failed", "err", err)
		os.Exit(1)
	}

	// Brief pause so in-flight log writes can flush before exit.
	time.Sleep(50 * time.Millisecond)
}
