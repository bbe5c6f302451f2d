//go:build wireinject

package main

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/manzolo/docker-compose-playground-sub001/cmd/api/api"
	"github.com/manzolo/docker-compose-playground-sub001/cmd/api/config"
	"github.com/manzolo/docker-compose-playground-sub001/lib/catalog"
	"github.com/manzolo/docker-compose-playground-sub001/lib/groups"
	"github.com/manzolo/docker-compose-playground-sub001/lib/lifecycle"
	"github.com/manzolo/docker-compose-playground-sub001/lib/operations"
	"github.com/manzolo/docker-compose-playground-sub001/lib/otel"
	"github.com/manzolo/docker-compose-playground-sub001/lib/providers"
	"github.com/manzolo/docker-compose-playground-sub001/lib/runtime"
)

// application struct to hold initialized components
type application struct {
	Ctx         context.Context
	Logger      *slog.Logger
	Config      *config.Config
	Resolver    *catalog.Resolver
	Runtime     runtime.Runtime
	Controller  lifecycle.Controller
	Coordinator groups.Coordinator
	Tracker     operations.Tracker
	ApiService  *api.ApiService
}

// initializeApp is the injector function
func initializeApp(telemetry *otel.Telemetry) (*application, func(), error) {
	panic(wire.Build(
		providers.ProvideContext,
		providers.ProvideLogger,
		providers.ProvideMeter,
		providers.ProvideConfig,
		providers.ProvidePaths,
		providers.ProvideResolver,
		providers.ProvideGenerator,
		providers.ProvideRuntime,
		providers.ProvideController,
		providers.ProvideTracker,
		providers.ProvideCoordinator,
		api.New,
		wire.Struct(new(application), "*"),
	))
}
