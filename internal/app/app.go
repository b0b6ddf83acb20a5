// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/AccelByte/extend-sponsor-unlock/internal/bootstrap"
	"github.com/AccelByte/extend-sponsor-unlock/internal/config"
	"github.com/AccelByte/extend-sponsor-unlock/internal/server"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/aggregator"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/catalog"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/common"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/handler"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/messenger"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/pipeline"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/provider"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/service"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/spam"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/state"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/unlock"
	"github.com/cenkalti/backoff/v4"

	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/factory"
	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/service/iam"
	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/service/platform"
	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/service/social"
	sdkAuth "github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/utils/auth"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	actionBuiltin "github.com/AccelByte/extend-sponsor-unlock/pkg/action/builtin"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	catalogDB         *gorm.DB
	scheduler         *spam.Scheduler
	logCloser         io.Closer
	stopHealth        context.CancelFunc
	shutdownTelemetry func(context.Context) error

	// AccelByte SDK repositories (shared across all services)
	configRepo *sdkAuth.ConfigRepositoryImpl
	tokenRepo  *sdkAuth.TokenRepositoryImpl
}

// New creates and initializes a new application instance.
//
// ============================================================
// DEVELOPER: Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Logging (level and optional rotating file)
// 2. AccelByte SDK (required for reward fulfillment)
// 3. Redis (offer passes, stage state, daily counters)
// 4. Sponsor catalog database
// 5. Feature configuration (YAML)
// 6. External services (messenger, rewards, statistics)
// 7. Offer aggregation (providers → aggregator)
// 8. Actions and stage machines
// 9. Promotion scheduler
// 10. Servers (gRPC, metrics) and Redis health watch
// 11. Telemetry (OpenTelemetry tracing)
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Configure logging
	// ============================================================
	logCloser, err := common.SetupLogger(common.LogConfig{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	app.logCloser = logCloser

	logrus.Info("initializing application...")

	// ============================================================
	// Step 2: Initialize Client Auth using AccelByte SDK
	// ============================================================
	if err := app.initAccelByteSDKAuth(); err != nil {
		return nil, fmt.Errorf("failed to init AccelByte SDK: %w", err)
	}

	// ============================================================
	// Step 3: Initialize Redis
	// ============================================================
	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}

	// ============================================================
	// Step 4: Open the sponsor catalog
	// ============================================================
	db, err := catalog.Open(cfg.CatalogDriver, cfg.CatalogDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sponsor catalog: %w", err)
	}
	app.catalogDB = db
	catalogRepo := catalog.NewRepository(db)

	// ============================================================
	// Step 5: Load feature configuration
	// ============================================================
	pipelineConfig, err := pipeline.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load feature config from %s: %w", cfg.ConfigPath, err)
	}
	logrus.Infof("loaded feature configuration from %s", cfg.ConfigPath)

	// ============================================================
	// Step 6: Initialize external services
	// ============================================================
	chat, err := messenger.New(messenger.Config{
		Token:    cfg.TelegramToken,
		APIURL:   cfg.TelegramAPIURL,
		AdminIDs: cfg.AdminIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init messenger: %w", err)
	}

	stateStore := state.NewRedisStore(app.redisClient, state.RedisStoreConfig{KeyPrefix: cfg.RedisKeyPrefix})
	rewardService := app.initRewardService()
	statisticService := app.initStatisticService()
	retryCredits := service.NewRetryCreditService(app.redisClient, service.RetryCreditServiceConfig{})

	// ============================================================
	// Step 7: Offer aggregation
	// ============================================================
	var members provider.MembershipChecker
	if chat.Online() {
		members = chat
	}
	providers, providerReset, err := bootstrap.InitProviders(cfg, catalogRepo, members)
	if err != nil {
		return nil, fmt.Errorf("failed to init providers: %w", err)
	}
	offerAggregator := aggregator.New(stateStore, providers, statisticService, aggregator.Config{
		PassTTL: cfg.PassTTL,
	})

	// ============================================================
	// Step 8: Actions and stage machines
	// ============================================================
	// DEVELOPER: If your custom actions need external services,
	// add them to the Dependencies struct in pkg/action/builtin/init.go
	// and pass them here.
	// ============================================================
	actionDeps := &actionBuiltin.Dependencies{
		Services: service.NewDependencies().
			WithRewardIssuer(rewardService).
			WithCompletionRecorder(statisticService).
			WithRetryCredits(retryCredits),
		Messenger: chat,
	}

	actionExecutor, actionRegistry, err := bootstrap.InitActionExecutor(pipelineConfig, actionDeps)
	if err != nil {
		return nil, fmt.Errorf("failed to init action executor: %w", err)
	}

	manager, err := bootstrap.InitPipeline(pipelineConfig, unlock.Dependencies{
		Store:         stateStore,
		Resolver:      offerAggregator,
		Counter:       state.NewDailyCounter(stateStore, cfg.Location()),
		Actions:       actionExecutor,
		Operators:     chat,
		ProviderReset: providerReset,
	})
	if err != nil {
		return nil, err
	}

	// ============================================================
	// Validate feature wiring
	// ============================================================
	// This ensures every feature in config/features.yaml has a
	// machine and references enabled, registered actions.
	// ============================================================
	if err := pipeline.ValidateWiring(actionRegistry, manager, pipelineConfig); err != nil {
		return nil, fmt.Errorf("feature wiring validation failed: %w", err)
	}
	logrus.Info("feature wiring validation passed")

	// ============================================================
	// Step 9: Promotion scheduler
	// ============================================================
	app.scheduler = bootstrap.InitSpamScheduler(cfg, catalogRepo, chat)

	// ============================================================
	// Step 10: Setup servers
	// ============================================================
	var scheduler handler.PromotionScheduler
	if app.scheduler != nil {
		scheduler = app.scheduler
	}
	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort, handler.NewUnlock(manager, offerAggregator, scheduler))
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	healthCtx, stopHealth := context.WithCancel(context.WithoutCancel(ctx))
	app.stopHealth = stopHealth
	go state.NewHealthChecker(app.redisClient).Watch(healthCtx, cfg.RedisHealthInterval, app.grpcServer.SetServing)

	// ============================================================
	// Step 11: Setup telemetry
	// ============================================================
	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.OtelServiceName, cfg.Environment, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initAccelByteSDKAuth initializes the AccelByte SDK auth by performing client login.
//
// ============================================================
// DEVELOPER: AccelByte Client Auth configuration
// ============================================================
// The Client Auth is configured via environment variables:
// - AB_BASE_URL: AccelByte platform base URL
// - AB_CLIENT_ID: OAuth2 client ID
// - AB_CLIENT_SECRET: OAuth2 client secret
// - AB_NAMESPACE: Game namespace
//
// The SDK uses automatic token refresh (RefreshRate: 0.8 = 80% of TTL).
//
// IMPORTANT: The configRepo and tokenRepo are stored in the App struct
// and must be reused by all AccelByte services to share authentication.
// ============================================================
func (a *App) initAccelByteSDKAuth() error {
	a.configRepo = sdkAuth.DefaultConfigRepositoryImpl()
	a.tokenRepo = sdkAuth.DefaultTokenRepositoryImpl()
	refreshRepo := &sdkAuth.RefreshTokenImpl{AutoRefresh: true, RefreshRate: 0.8}

	oauthService := iam.OAuth20Service{
		Client:                 factory.NewIamClient(a.configRepo),
		ConfigRepository:       a.configRepo,
		TokenRepository:        a.tokenRepo,
		RefreshTokenRepository: refreshRepo,
	}

	clientID := a.configRepo.GetClientId()
	clientSecret := a.configRepo.GetClientSecret()

	if err := oauthService.LoginClient(&clientID, &clientSecret); err != nil {
		return fmt.Errorf("unable to login using clientId and clientSecret: %w", err)
	}

	logrus.Info("AccelByte SDK initialized and authenticated")
	return nil
}

// initRedis initializes the Redis client.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Duration(a.cfg.RedisRetryDelayMs) * time.Millisecond
	maxRetries := backoff.WithMaxRetries(backoff.WithContext(b, ctx), uint64(a.cfg.RedisMaxRetries))

	err := backoff.Retry(
		func() error {
			_, err := client.Ping(ctx).Result()
			if err != nil {
				logrus.Warnf("Redis connection failed: %v, retrying...", err)
				return err
			}
			return nil
		},
		maxRetries,
	)

	if err != nil {
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}

// ============================================================
// DEVELOPER: Add custom service initializers here
// ============================================================
// IMPORTANT: Always reuse a.configRepo and a.tokenRepo to share the
// authenticated session. Do NOT call DefaultConfigRepositoryImpl() or
// DefaultTokenRepositoryImpl() again - this creates new empty instances!
// ============================================================

// initRewardService creates the fulfillment-backed reward issuer.
func (a *App) initRewardService() *service.RewardService {
	fulfillmentService := &platform.FulfillmentService{
		Client:           factory.NewPlatformClient(a.configRepo),
		ConfigRepository: a.configRepo,
		TokenRepository:  a.tokenRepo,
	}

	return service.NewRewardService(fulfillmentService, service.RewardServiceConfig{
		Namespace: a.cfg.ABNamespace,
	})
}

// initStatisticService creates the statistic client that flags completed passes.
func (a *App) initStatisticService() *service.StatisticService {
	statisticService := &social.UserStatisticService{
		Client:           factory.NewSocialClient(a.configRepo),
		ConfigRepository: a.configRepo,
		TokenRepository:  a.tokenRepo,
	}

	return service.NewStatisticService(statisticService, service.StatisticServiceConfig{
		Namespace: a.cfg.ABNamespace,
		StatCode:  a.cfg.CompletionStatCode,
	})
}
