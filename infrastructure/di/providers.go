package di

import (
	"context"
	"fmt"
	"time"

	"focuslink/application/ports"
	"focuslink/application/services"
	domainconfig "focuslink/domain/config"
	"focuslink/domain/events"
	"focuslink/domain/synergy"
	"focuslink/infrastructure/config"
	"focuslink/infrastructure/messaging/eventbridge"
	"focuslink/infrastructure/messaging/local"
	"focuslink/infrastructure/persistence/dynamodb"
	"focuslink/infrastructure/persistence/memory"
	"focuslink/infrastructure/realtime/apigateway"
	"focuslink/interfaces/http/rest"
	"focuslink/pkg/auth"
	pkgerrors "focuslink/pkg/errors"
	"focuslink/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
)

const serviceName = "focuslink-api"

// readinessProbeUser is looked up by /ready; NotFound means storage answered
const readinessProbeUser = "__readiness__"

// Repositories groups the storage ports of the selected backend
type Repositories struct {
	Profiles    ports.ProfileRepository
	Connections ports.ConnectionRepository
	Groups      ports.GroupRepository
	Messages    ports.MessageRepository
	Sockets     ports.SocketRepository
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideDomainConfig returns the business limits for the environment.
// Matching knobs live on config.Config and reach the matcher through
// BuildMatcher.
func ProvideDomainConfig(cfg *config.Config) *domainconfig.DomainConfig {
	return domainconfig.LoadDomainConfig(cfg.Environment)
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideRepositories builds the repositories for STORAGE_BACKEND
func ProvideRepositories(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) *Repositories {
	if cfg.StorageBackend == config.StorageMemory {
		logger.Warn("Using in-memory storage; data is lost on restart")
		return &Repositories{
			Profiles:    memory.NewProfileRepository(),
			Connections: memory.NewConnectionRepository(),
			Groups:      memory.NewGroupRepository(),
			Messages:    memory.NewMessageRepository(),
		}
	}

	table := dynamodb.NewTable(client, cfg.DynamoDBTable, cfg.IndexName, logger)
	return &Repositories{
		Profiles:    dynamodb.NewProfileRepository(table),
		Connections: dynamodb.NewConnectionRepository(table),
		Groups:      dynamodb.NewGroupRepository(table),
		Messages:    dynamodb.NewMessageRepository(table),
		Sockets:     dynamodb.NewSocketRepository(table),
	}
}

// ProvideMatcherSource serves the synergy matcher. With SYNERGY_CONFIG_PATH
// set the tuning file is watched and reloaded; otherwise the env defaults
// are fixed for the process lifetime.
func ProvideMatcherSource(cfg *config.Config, logger *zap.Logger) (ports.MatcherSource, func(), error) {
	if cfg.SynergyConfigPath == "" {
		return ports.StaticMatcher(config.BuildMatcher(cfg, nil)), func() {}, nil
	}

	watcher, err := config.NewMatcherWatcher(cfg, cfg.SynergyConfigPath, logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.OnChange(func(m *synergy.Matcher) {
		logger.Info("Synergy tuning applied",
			zap.Int("minScore", m.MinScore()),
			zap.Int("limit", m.Limit()),
		)
	})
	watcher.Start()
	return watcher, watcher.Stop, nil
}

// ProvideCollector creates the Prometheus collector, or nil when metrics
// are disabled
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewCollector(cfg.MetricsNS)
}

// ProvideMetricsRecorder fans business metrics out to Prometheus and, on the
// DynamoDB backend, to CloudWatch
func ProvideMetricsRecorder(
	cfg *config.Config,
	collector *observability.Collector,
	client *awscloudwatch.Client,
	logger *zap.Logger,
) ports.MetricsRecorder {
	var recorders observability.MultiRecorder
	if collector != nil {
		recorders = append(recorders, collector)
	}
	if cfg.EnableMetrics && cfg.StorageBackend == config.StorageDynamoDB {
		recorders = append(recorders, observability.NewCloudWatchMetrics(cfg.MetricsNS, client, logger))
	}
	if len(recorders) == 0 {
		return ports.NoopMetrics{}
	}
	return recorders
}

// ProvideLocalPublisher creates the in-process publisher. It always exists
// so in-process subscribers can be registered regardless of the broker.
func ProvideLocalPublisher(logger *zap.Logger) *local.Publisher {
	return local.NewPublisher(logger)
}

// ProvideEventPublisher picks EventBridge when a bus is configured on the
// DynamoDB backend, and the in-process publisher otherwise
func ProvideEventPublisher(
	cfg *config.Config,
	client *awseventbridge.Client,
	localPublisher *local.Publisher,
	logger *zap.Logger,
) ports.EventPublisher {
	if cfg.StorageBackend == config.StorageMemory || cfg.EventBusName == "" {
		logger.Info("Publishing domain events in-process")
		return localPublisher
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, cfg.EventSource,
		eventbridge.DefaultBreakerSettings(), logger)
}

// ProvideMatchRefresher creates the refresher and subscribes it to goal
// changes on the in-process publisher. With EventBridge the match-refresh
// Lambda consumes the same events instead.
func ProvideMatchRefresher(
	matches *services.MatchService,
	publisher ports.EventPublisher,
	localPublisher *local.Publisher,
	logger *zap.Logger,
) *services.MatchRefresher {
	refresher := services.NewMatchRefresher(matches, publisher, logger)
	if publisher == ports.EventPublisher(localPublisher) {
		localPublisher.Subscribe(events.TypeGoalsChanged, refresher.Handle)
	}
	return refresher
}

// ProvidePusher creates the WebSocket pusher, or nil when no endpoint is
// configured
func ProvidePusher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.Pusher {
	if cfg.WebSocketEndpoint == "" {
		return nil
	}
	return apigateway.NewPusher(apigateway.NewClient(awsCfg, cfg.WebSocketEndpoint), logger)
}

// ProvideNotifier creates the notifier and, when events stay in-process
// and a pusher exists, subscribes it to the pushed event types. With
// EventBridge the ws-notify Lambda drives it instead.
func ProvideNotifier(
	sockets ports.SocketRepository,
	pusher ports.Pusher,
	metrics ports.MetricsRecorder,
	domainCfg *domainconfig.DomainConfig,
	publisher ports.EventPublisher,
	localPublisher *local.Publisher,
	logger *zap.Logger,
) *services.Notifier {
	notifier := services.NewNotifier(sockets, pusher, metrics, domainCfg, logger)
	if pusher != nil && publisher == ports.EventPublisher(localPublisher) {
		for _, eventType := range services.PushedEventTypes {
			localPublisher.Subscribe(eventType, notifier.Handle)
		}
	}
	return notifier
}

// ProvideJWTValidator creates the bearer token validator
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	secret := cfg.JWTSecret
	if secret == "" && cfg.IsDevelopment() {
		secret = "development-secret-change-in-production"
	}
	return auth.NewJWTValidator(secret, cfg.JWTIssuer)
}

// ProvideRateLimiter creates the per-user limiter and its cleanup loop
func ProvideRateLimiter(cfg *config.Config) (*auth.KeyedLimiter, func()) {
	limiter := auth.NewKeyedLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	stop := make(chan struct{})
	limiter.StartCleanup(5*time.Minute, stop)
	return limiter, func() { close(stop) }
}

// ProvideErrorHandler creates the HTTP error handler; development responses
// carry raw error messages
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideTracerProvider installs OpenTelemetry tracing when enabled
func ProvideTracerProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, serviceName, cfg.Environment, cfg.OTelEndpoint)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

// ProvideRouter creates the HTTP router with a storage readiness check
func ProvideRouter(
	cfg *config.Config,
	svc rest.Services,
	repos *Repositories,
	validator *auth.JWTValidator,
	limiter *auth.KeyedLimiter,
	collector *observability.Collector,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *rest.Router {
	router := rest.NewRouter(svc, validator, limiter, collector, errs, cfg.AllowedOrigins, logger)
	return router.WithReadinessCheck(func(ctx context.Context) error {
		_, err := repos.Profiles.GetByID(ctx, readinessProbeUser)
		if err == nil || pkgerrors.IsNotFound(err) {
			return nil
		}
		return err
	})
}
