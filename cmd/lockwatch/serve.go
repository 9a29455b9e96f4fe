// serve.go implements the 'lockwatch serve' command.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kolkov/lockwatch"
	"github.com/kolkov/lockwatch/internal/config"
	"github.com/kolkov/lockwatch/internal/dashboard"
)

// serveCommand runs the HTTP dashboard against a fresh monitor and, unless
// disabled in the config, a synthetic lock workload so the graph has
// something to show. Blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func serveCommand(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a lockwatch YAML config file")
	addr := fs.String("addr", "", "listen address (overrides the config file)")
	verbose := fs.Bool("verbose", false, "log at debug level")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: lockwatch serve [-config file] [-addr host:port] [-verbose]")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Dashboard.Addr = *addr
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := lockwatch.NewMonitor()
	srv := dashboard.NewServer(mon, dashboard.Options{
		Addr:            cfg.Dashboard.Addr,
		ShutdownTimeout: cfg.Dashboard.ShutdownTimeout.Std(),
		Logger:          logger,
	})
	srv.Start()
	logger.Info("dashboard started", "addr", cfg.Dashboard.Addr)

	if cfg.Demo.Enabled {
		logger.Info("starting demo workload",
			"scenario", cfg.Demo.Scenario,
			"workers", cfg.Demo.Workers)
		startWorkload(ctx, mon, cfg.Demo, logger)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("shutdown", "error", err)
		os.Exit(1)
	}
}
