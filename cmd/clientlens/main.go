package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BerylCAtieno/clientlens/internal/app"
	"github.com/BerylCAtieno/clientlens/internal/cli"
	"github.com/BerylCAtieno/clientlens/internal/config"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	// The terminal belongs to the TUI; logs go to CLIENTLENS_LOG_FILE if set.
	cfg.Metrics = false
	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cliApp := &cli.App{
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}

	application, err := app.New(ctx, cfg, logger, app.Options{})
	switch {
	case errors.Is(err, config.ErrMissingAPIKey):
		// Browsing personas works without a model.
		store, closeStore, err := app.OpenStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()
		cliApp.Personas = store
		cliApp.ModelErr = config.ErrMissingAPIKey
	case err != nil:
		return err
	default:
		defer application.Close(context.Background())
		cliApp.Personas = application.Store
		cliApp.NewPreparation = func() *workflow.Preparation { return application.NewPreparation() }
		cliApp.NewAnalysis = func() *workflow.Analysis { return application.NewAnalysis() }
	}

	return cli.NewRootCmd(cliApp).ExecuteContext(ctx)
}

func openLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	path := os.Getenv("CLIENTLENS_LOG_FILE")
	if path == "" {
		return cfg.NewLogger(io.Discard), func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return cfg.NewLogger(f), f.Close, nil
}
