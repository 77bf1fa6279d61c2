package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/clientlens/internal/a2a"
	"github.com/BerylCAtieno/clientlens/internal/api"
	"github.com/BerylCAtieno/clientlens/internal/app"
	"github.com/BerylCAtieno/clientlens/internal/config"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		log.Fatalf("Failed to start ClientLens: %v", err)
	}
	defer application.Close(context.Background())

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	api.NewHandler(application.Store, application.Registry, logger).Register(router)
	a2a.NewA2AHandler(application.Registry, application.Store, logger, cfg.PublicURL).Register(router)
	if application.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(application.MetricsHandler))
	}

	var handler http.Handler = router
	if cfg.Metrics {
		handler = otelhttp.NewHandler(handler, "clientlens")
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		// Model calls can take up to the configured timeout per attempt.
		WriteTimeout: cfg.Timeout*time.Duration(cfg.MaxRetries+1) + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("ClientLens starting", slog.String("port", cfg.Port))
	logger.Info("Agent card available", slog.String("url", "http://localhost:"+cfg.Port+"/.well-known/agent.json"))
	logger.Info("A2A endpoint available", slog.String("url", "http://localhost:"+cfg.Port+"/a2a/clientlens"))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", slog.Any("error", err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}
}
