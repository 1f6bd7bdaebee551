package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"

	"ideatracker/application/commands"
	"ideatracker/application/commands/bus"
	cmdhandlers "ideatracker/application/commands/handlers"
	"ideatracker/application/ports"
	"ideatracker/application/queries"
	querybus "ideatracker/application/queries/bus"
	queryhandlers "ideatracker/application/queries/handlers"
	"ideatracker/application/services"
	"ideatracker/application/session"
	"ideatracker/domain/core/valueobjects"
	"ideatracker/infrastructure/config"
	"ideatracker/infrastructure/messaging/eventbridge"
	"ideatracker/infrastructure/persistence/dynamodb"
	"ideatracker/infrastructure/persistence/ideas"
	"ideatracker/infrastructure/persistence/memory"
	"ideatracker/infrastructure/persistence/resilient"
	"ideatracker/infrastructure/persistence/sqlite"
	"ideatracker/interfaces/http/rest"
	"ideatracker/interfaces/http/web"
	"ideatracker/pkg/auth"
	pkgerrors "ideatracker/pkg/errors"
	"ideatracker/pkg/observability"
)

const serviceName = "ideatracker"

// BaseStore is the raw path store selected by STORE_BACKEND, before the
// circuit breaker is put in front of it.
type BaseStore interface {
	ports.PathStore
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config
	if cfg.IsProduction() || cfg.IsLambda {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zc.Level = level

	return zc.Build(zap.Fields(zap.String("service", serviceName)))
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client. DYNAMODB_ENDPOINT points
// it at DynamoDB Local.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideBaseStore opens the configured path store backend.
func ProvideBaseStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) (BaseStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn("Using the in-memory store; data is lost on restart")
		return memory.NewPathStore(), func() {}, nil
	case config.StoreSQLite:
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close sqlite store", zap.Error(err))
			}
		}
		return store, cleanup, nil
	case config.StoreDynamoDB:
		return dynamodb.NewPathStore(client, cfg.DynamoDBTable, logger), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// ProvideStore wraps the base store with the circuit breaker and per call
// timeout.
func ProvideStore(base BaseStore, cfg *config.Config, metrics observability.Recorder, logger *zap.Logger) ports.PathStore {
	rc := resilient.DefaultConfig("path-store")
	rc.CallTimeout = cfg.StoreTimeout
	return resilient.New(base, rc, metrics, logger)
}

// ProvideReadinessCheck probes the base store. The probe bypasses the
// breaker so an open breaker does not hide recovery.
func ProvideReadinessCheck(base BaseStore) rest.ReadinessCheck {
	return func(ctx context.Context) error {
		if p, ok := base.(interface{ Ping(context.Context) error }); ok {
			return p.Ping(ctx)
		}
		_, _, err := base.Get(ctx, "health")
		return err
	}
}

// ProvideIdeaRepository creates the idea repository
func ProvideIdeaRepository(store ports.PathStore, logger *zap.Logger) ports.IdeaRepository {
	return ideas.NewRepository(store, logger)
}

// ProvideInMemoryCache creates the query cache
func ProvideInMemoryCache() (ports.Cache, func()) {
	cache := NewInMemoryCache()
	return cache, cache.Close
}

// ProvideCollector creates the Prometheus collector, or nil when Prometheus
// is not the metrics sink.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	if cfg.MetricsSink != config.MetricsPrometheus {
		return nil
	}
	return observability.NewCollector(serviceName)
}

// ProvideMetrics selects the operation metrics sink
func ProvideMetrics(cfg *config.Config, collector *observability.Collector, awsCfg aws.Config, logger *zap.Logger) (observability.Recorder, func()) {
	switch cfg.MetricsSink {
	case config.MetricsPrometheus:
		return collector, func() {}
	case config.MetricsCloudWatch:
		namespace := fmt.Sprintf("IdeaTracker/%s", cfg.Environment)
		cw := observability.NewCloudWatchMetrics(awscloudwatch.NewFromConfig(awsCfg), namespace, time.Minute, logger)
		return cw, cw.Close
	default:
		return observability.NopRecorder{}, func() {}
	}
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideEventPublisher publishes to EventBridge when EVENT_BUS_NAME is set
// and only logs events otherwise.
func ProvideEventPublisher(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		return eventbridge.NewLogPublisher(logger)
	}
	return eventbridge.NewPublisher(awseventbridge.NewFromConfig(awsCfg), cfg.EventBusName, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(
	repo ports.IdeaRepository,
	cache ports.Cache,
	publisher ports.EventPublisher,
	metrics observability.Recorder,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(
		bus.LoggingMiddleware(logger),
		bus.TracingMiddleware(tracer),
		bus.MetricsMiddleware(metrics),
	)

	save := cmdhandlers.NewSaveIdeaHandler(repo, cache, publisher, valueobjects.NewIDGenerator(time.Now), time.Now, logger)
	if err := commandBus.Register(commands.SaveIdeaCommand{}, save); err != nil {
		return nil, err
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(
	repo ports.IdeaRepository,
	cache ports.Cache,
	cfg *config.Config,
	metrics observability.Recorder,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus(
		querybus.LoggingMiddleware(logger),
		querybus.TracingMiddleware(tracer),
		querybus.MetricsMiddleware(metrics),
		querybus.CachingMiddleware(cache, cfg.QueryCacheTTL, metrics),
	)

	if err := queryBus.Register(queries.GetIdeaQuery{}, queryhandlers.NewGetIdeaHandler(repo, logger)); err != nil {
		return nil, err
	}
	if err := queryBus.Register(queries.ListIdeasQuery{}, queryhandlers.NewListIdeasHandler(repo, logger)); err != nil {
		return nil, err
	}
	return queryBus, nil
}

// ProvideIdeaService creates the idea service
func ProvideIdeaService(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *services.IdeaService {
	return services.NewIdeaService(commandBus, queryBus, logger)
}

// ProvideJWTService creates the session token service of the local auth
// provider. Hosted providers issue their own tokens, so it is nil for them.
func ProvideJWTService(cfg *config.Config) (*auth.JWTService, error) {
	if cfg.AuthProvider != config.AuthLocal {
		return nil, nil
	}
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:  cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		ExpiryTime: cfg.SessionTTL,
	})
}

// ProvideLoginLimiter throttles sign-in attempts per email. With the
// DynamoDB backend the counters live in the table so every instance shares
// them.
func ProvideLoginLimiter(cfg *config.Config, client *awsdynamodb.Client) *auth.KeyedLimiter {
	var backend auth.RateLimiter
	if cfg.StoreBackend == config.StoreDynamoDB {
		backend = auth.NewDistributedRateLimiter(client, cfg.DynamoDBTable, cfg.LoginRateLimit, time.Minute)
	}
	return auth.NewLoginRateLimiter(backend, cfg.LoginRateLimit)
}

// ProvideAuthProvider selects the auth provider
func ProvideAuthProvider(
	cfg *config.Config,
	store ports.PathStore,
	tokens *auth.JWTService,
	limiter *auth.KeyedLimiter,
	logger *zap.Logger,
) (auth.Provider, error) {
	switch cfg.AuthProvider {
	case config.AuthSupabase:
		return auth.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseKey, logger)
	case config.AuthLocal:
		return auth.NewLocalProvider(store, tokens, limiter, logger), nil
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.AuthProvider)
	}
}

// ProvideSessionManager creates the browser session manager and subscribes
// it to the provider.
func ProvideSessionManager(provider auth.Provider, cfg *config.Config, logger *zap.Logger) (*session.Manager, func()) {
	restoreTimeout := 10 * time.Second
	if cfg.StoreTimeout > 0 {
		restoreTimeout = cfg.StoreTimeout
	}
	manager := session.NewManager(provider, restoreTimeout, logger)
	manager.Start()
	return manager, manager.Stop
}

// ProvideWebHandler creates the page handler
func ProvideWebHandler(
	ideaService *services.IdeaService,
	provider auth.Provider,
	manager *session.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) (*web.Handler, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}
	return web.NewHandler(ideaService, provider, manager, renderer, web.Options{
		SettleTimeout: cfg.SessionSettleTimeout,
		SecureCookies: cfg.SecureCookies,
	}, logger), nil
}

// ProvideAPILimiters creates the per IP and per user API limits
func ProvideAPILimiters(cfg *config.Config) rest.Limiters {
	return rest.Limiters{
		IP:   auth.NewIPRateLimiter(cfg.APIRateLimit),
		User: auth.NewUserRateLimiter(cfg.APIRateLimit),
	}
}

// ProvideErrorHandler creates the JSON error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	cfg *config.Config,
	ideaService *services.IdeaService,
	provider auth.Provider,
	pages *web.Handler,
	limiters rest.Limiters,
	collector *observability.Collector,
	ready rest.ReadinessCheck,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *rest.Router {
	var origins []string
	if cfg.EnableCORS {
		origins = cfg.CORSOrigins
	}
	return rest.NewRouter(ideaService, provider, pages, limiters, collector, ready, origins, errs, logger)
}
