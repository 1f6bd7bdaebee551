package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"ideatracker/infrastructure/config"
	"ideatracker/infrastructure/di"
	"ideatracker/interfaces/cli"
	"ideatracker/pkg/auth"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	// keep request logs off the terminal unless asked for
	if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}

	ctx := context.Background()
	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing: %w", err)
	}
	defer cleanup()
	defer func() { _ = container.Logger.Sync() }()

	app := &cli.App{
		Ideas: container.Ideas,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		},
	}
	if local, ok := container.Auth.(*auth.LocalProvider); ok {
		app.Users = local
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
