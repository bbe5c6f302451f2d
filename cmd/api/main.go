package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"golang.org/x/sync/errgroup"

	"github.com/manzolo/docker-compose-playground-sub001/lib/middleware"
	"github.com/manzolo/docker-compose-playground-sub001/lib/otel"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Setup context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup telemetry (noop unless OTEL_EXPORTER_OTLP_ENDPOINT is set)
	telemetry, err := otel.Setup(ctx)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}

	// Initialize the application via wire
	app, cleanup, err := initializeApp(telemetry)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer cleanup()

	log := app.Logger
	slog.SetDefault(log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(otelchi.Middleware(otel.ServiceName, otelchi.WithChiRoutes(r), otelchi.WithTracerProvider(telemetry.Tracer)))
	r.Use(middleware.InjectLogger(log))
	r.Use(middleware.AccessLogger(middleware.NewAccessLogger(telemetry.LogHandler)))

	httpMetrics, err := middleware.NewHTTPMetrics(telemetry.Meter)
	if err != nil {
		return fmt.Errorf("create http metrics: %w", err)
	}
	r.Use(httpMetrics.Middleware)

	// Liveness is always unauthenticated
	r.Get("/healthz", app.ApiService.Healthz)

	// API routes, behind bearer auth when a secret is configured
	r.Group(func(r chi.Router) {
		if app.Config.JwtSecret != "" {
			r.Use(middleware.VerifyJWT(app.Config.JwtSecret))
		}
		app.ApiService.Routes(r)
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", app.Config.Port),
		Handler: r,
	}

	// Error group for coordinated shutdown
	grp, gctx := errgroup.WithContext(ctx)

	// Run the server
	grp.Go(func() error {
		log.Info("starting playground API server", "port", app.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
			return err
		}
		return nil
	})

	// Shutdown handler
	grp.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown http server", "error", err)
			return err
		}

		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown telemetry", "error", err)
		}

		log.Info("http server shutdown complete")
		return nil
	})

	return grp.Wait()
}
