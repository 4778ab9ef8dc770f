package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thedub2001/skull01/internal/config"
	"github.com/thedub2001/skull01/internal/di"
	"github.com/thedub2001/skull01/internal/interfaces/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.New(open).Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// open wires the same container the API uses, without the settings watcher
// and with quieter logs.
func open(ctx context.Context, dir string) (*cli.App, func(), error) {
	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return nil, nil, err
	}
	cfg.Settings.Watch = false
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	app := &cli.App{
		Adapter:  container.Adapter,
		Engine:   container.Engine,
		GraphOps: container.GraphOps,
		Local:    container.Local,
		Settings: container.Settings,
		Logger:   container.Logger,
	}
	return app, func() {
		cleanup()
		_ = container.Logger.Sync()
	}, nil
}
