package providers

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/manzolo/docker-compose-playground-sub001/cmd/api/config"
	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/compose"
	"github.com/manzolo/docker-compose-playground-sub001/lib/groups"
	"github.com/manzolo/docker-compose-playground-sub001/lib/lifecycle"
	"github.com/manzolo/docker-compose-playground-sub001/lib/logger"
	"github.com/manzolo/docker-compose-playground-sub001/lib/operations"
	libotel "github.com/manzolo/docker-compose-playground-sub001/lib/otel"
	"github.com/manzolo/docker-compose-playground-sub001/lib/paths"
	"github.com/manzolo/docker-compose-playground-sub001/lib/runtime"
)

// ProvideContext provides a base context
func ProvideContext() context.Context {
	return context.Background()
}

// ProvideLogger provides a structured logger, fanned out to the OTLP
// pipeline when telemetry is configured
func ProvideLogger(t *libotel.Telemetry) *slog.Logger {
	return logger.New(logger.NewConfig(), t.LogHandler)
}

// ProvideMeter provides the OTel meter
func ProvideMeter(t *libotel.Telemetry) metric.Meter {
	return t.Meter
}

// ProvideConfig provides the application configuration
func ProvideConfig() *config.Config {
	return config.Load()
}

// ProvidePaths provides the filesystem layout
func ProvidePaths(cfg *config.Config) *paths.Paths {
	return paths.New(cfg.DataDir, cfg.CatalogFile, cfg.OverlayDir, cfg.ScriptsDir, cfg.SharedDir)
}

// ProvideResolver provides the catalog resolver
func ProvideResolver(p *paths.Paths) *catalog.Resolver {
	return catalog.NewResolver(p)
}

// ProvideGenerator provides the runtime spec generator
func ProvideGenerator(cfg *config.Config, p *paths.Paths) *compose.Generator {
	return compose.NewGenerator(p, cfg.NetworkName)
}

// ProvideRuntime provides the container runtime and its cleanup
func ProvideRuntime() (runtime.Runtime, func(), error) {
	rt, err := runtime.NewDockerRuntime()
	if err != nil {
		return nil, nil, err
	}
	return rt, func() { _ = rt.Close() }, nil
}

// ProvideController provides the lifecycle controller
func ProvideController(rt runtime.Runtime, gen *compose.Generator, p *paths.Paths, cfg *config.Config, meter metric.Meter) (lifecycle.Controller, error) {
	opts := lifecycle.DefaultOptions()
	opts.HealthInterval = time.Duration(cfg.HealthIntervalSeconds) * time.Second
	opts.HealthAttempts = cfg.HealthAttempts
	opts.StopTimeout = time.Duration(cfg.StopTimeoutSeconds) * time.Second
	return lifecycle.NewController(rt, gen, p, opts, meter)
}

// ProvideTracker provides the operation tracker
func ProvideTracker() operations.Tracker {
	return operations.NewTracker()
}

// ProvideCoordinator provides the group coordinator
func ProvideCoordinator(ctrl lifecycle.Controller, rt runtime.Runtime, tracker operations.Tracker) groups.Coordinator {
	return groups.NewCoordinator(ctrl, rt, tracker)
}
