// Package app wires configuration, the persona store, the model backend and
// the workflow registry together for the server and CLI binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/config"
	"github.com/BerylCAtieno/clientlens/internal/models"
	"github.com/BerylCAtieno/clientlens/internal/persona"
	"github.com/BerylCAtieno/clientlens/internal/profiler"
	"github.com/BerylCAtieno/clientlens/internal/telemetry"
	"github.com/BerylCAtieno/clientlens/internal/workflow"
)

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Store    persona.Store
	Service  *profiler.Service
	Registry *workflow.Registry

	// MetricsHandler serves /metrics; nil when metrics are disabled.
	MetricsHandler http.Handler

	workflowOpts []workflow.Option
	closers      []func(context.Context) error
}

// Options overrides parts of the wiring, mainly for tests.
type Options struct {
	Generator profiler.Generator
	Store     persona.Store
}

// New builds the application. The caller must Close it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	observers := profiler.MultiObserver{profiler.NewLogObserver(logger)}
	a.workflowOpts = []workflow.Option{workflow.WithLogger(logger)}
	if cfg.Metrics {
		handler, provider, err := telemetry.InitMeterProvider(ctx, "clientlens")
		if err != nil {
			return nil, fmt.Errorf("initialising metrics: %w", err)
		}
		a.closers = append(a.closers, provider.Shutdown)
		metrics, err := telemetry.NewMetrics(telemetry.Meter())
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("creating instruments: %w", err)
		}
		a.MetricsHandler = handler
		observers = append(observers, metrics)
		a.workflowOpts = append(a.workflowOpts, workflow.WithObserver(metrics))
	}

	store := opts.Store
	if store == nil {
		s, closeStore, err := OpenStore(ctx, cfg)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		store = s
		a.closers = append(a.closers, func(context.Context) error { return closeStore() })
	}
	a.Store = store

	gen := opts.Generator
	if gen == nil {
		g, closeGen, err := NewGenerator(ctx, cfg)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		gen = g
		a.closers = append(a.closers, func(context.Context) error { return closeGen() })
	}

	a.Service = profiler.NewService(gen, profiler.Options{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Observer:   observers,
	})
	a.Registry = workflow.NewRegistry(a.Service, a.Service, a.Store, a.workflowOpts...)
	if cfg.WorkflowTTL > 0 {
		a.startSweeper(cfg.WorkflowTTL)
	}

	logger.Info("clientlens ready",
		slog.String("backend", cfg.Backend),
		slog.String("model", a.Service.Model()),
		slog.String("store", cfg.Store),
		slog.Bool("metrics", cfg.Metrics))
	return a, nil
}

// NewPreparation returns a standalone preparation workflow using the app's
// service and options.
func (a *App) NewPreparation() *workflow.Preparation {
	return workflow.NewPreparation(a.Service, a.workflowOpts...)
}

// NewAnalysis returns a standalone analysis workflow.
func (a *App) NewAnalysis() *workflow.Analysis {
	return workflow.NewAnalysis(a.Service, a.Store, a.workflowOpts...)
}

func (a *App) startSweeper(ttl time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		a.Registry.RunSweeper(ctx, sweepInterval(ttl), ttl)
	}()
	a.closers = append(a.closers, func(context.Context) error {
		cancel()
		<-done
		return nil
	})
}

// sweepInterval checks a few times per ttl, between one second and one minute.
func sweepInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), time.Minute)
}

// Close releases resources in reverse order of creation.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// OpenStore opens the configured persona store, seeded from the configured
// seed file or the bundled demo personas.
func OpenStore(ctx context.Context, cfg config.Config) (persona.Store, func() error, error) {
	seed, err := loadSeed(cfg)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Store {
	case config.StoreSQLite:
		s, err := persona.OpenSQLite(ctx, cfg.DBPath, seed)
		if err != nil {
			return nil, nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, s.Close, nil
	default:
		s, err := persona.NewMemoryStore(seed)
		if err != nil {
			return nil, nil, fmt.Errorf("creating memory store: %w", err)
		}
		return s, func() error { return nil }, nil
	}
}

func loadSeed(cfg config.Config) ([]models.Persona, error) {
	if cfg.SeedFile != "" {
		return persona.LoadSeedFile(cfg.SeedFile)
	}
	return persona.DefaultSeed()
}

// NewGenerator creates the configured model backend.
func NewGenerator(ctx context.Context, cfg config.Config) (profiler.Generator, func() error, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, nil, err
	}

	switch cfg.Backend {
	case config.BackendGemini:
		g, err := profiler.NewGeminiGenerator(ctx, profiler.GeminiConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Endpoint:    cfg.BaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		g, err := profiler.NewGenAIGenerator(ctx, profiler.GenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			BaseURL:     cfg.BaseURL,
			Project:     cfg.Project,
			Location:    cfg.Location,
		})
		if err != nil {
			return nil, nil, err
		}
		return g, func() error { return nil }, nil
	}
}
