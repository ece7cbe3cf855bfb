//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"focuslink/application/services"
	"focuslink/infrastructure/config"
	"focuslink/interfaces/http/rest"

	"github.com/google/wire"
)

// InfrastructureSet provides clients, storage, messaging and telemetry
var InfrastructureSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideRepositories,
	wire.FieldsOf(new(*Repositories), "Profiles", "Connections", "Groups", "Messages", "Sockets"),
	ProvideMatcherSource,
	ProvideCollector,
	ProvideMetricsRecorder,
	ProvideLocalPublisher,
	ProvideEventPublisher,
	ProvidePusher,
	ProvideTracerProvider,
)

// ApplicationSet provides the application services
var ApplicationSet = wire.NewSet(
	services.NewGoalService,
	services.NewMatchService,
	services.NewConnectionService,
	services.NewGroupService,
	services.NewMessageService,
	services.NewNearbyService,
	ProvideMatchRefresher,
	ProvideNotifier,
	wire.Struct(new(rest.Services), "*"),
)

// InterfaceSet provides the HTTP layer
var InterfaceSet = wire.NewSet(
	ProvideJWTValidator,
	ProvideRateLimiter,
	ProvideErrorHandler,
	ProvideRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ApplicationSet,
	InterfaceSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// stops background work and flushes telemetry.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
