package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/delivery-fares/internal/clock"
	"github.com/richxcame/delivery-fares/internal/fares"
	"github.com/richxcame/delivery-fares/pkg/cache"
	"github.com/richxcame/delivery-fares/pkg/common"
	"github.com/richxcame/delivery-fares/pkg/config"
	"github.com/richxcame/delivery-fares/pkg/database"
	apperrors "github.com/richxcame/delivery-fares/pkg/errors"
	"github.com/richxcame/delivery-fares/pkg/logger"
	"github.com/richxcame/delivery-fares/pkg/middleware"
	"github.com/richxcame/delivery-fares/pkg/redis"
	"github.com/richxcame/delivery-fares/pkg/tracing"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the fares HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Root().Version)
		},
	}
}

// stores bundles the repositories picked by FARES_STORE with their health checks
type stores struct {
	configs fares.ConfigRepository
	rules   fares.SurgeRuleRepository
	checks  map[string]common.HealthCheckFunc
	closers []func()
}

func (s *stores) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func runServe(version string) error {
	cfg, err := config.Load(serviceName)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Get().With(zap.String("service", serviceName))

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sentryConfig := apperrors.DefaultSentryConfig(serviceName, cfg.Server.Environment)
	if sentryConfig.Release == "" {
		sentryConfig.Release = version
	}
	if sentryConfig.Enabled() {
		if err := apperrors.InitSentry(sentryConfig); err != nil {
			log.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
		} else {
			defer apperrors.Flush(2 * time.Second)
			log.Info("Sentry error tracking initialized")
		}
	}

	tp, err := tracing.InitTracer(rootCtx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize tracer", zap.Error(err))
	} else if tp != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx); err != nil {
				log.Warn("Failed to shutdown tracer", zap.Error(err))
			}
		}()
	}

	st, err := openStores(rootCtx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	service := fares.NewService(fares.ServiceParams{
		Configs:    st.configs,
		SurgeRules: st.rules,
		Clock:      clock.SystemClock{},
		Location:   cfg.Fares.Location(),
		Logger:     log,
	})
	handler := fares.NewHandler(service)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(serviceName))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins()))
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware(serviceName))
	}
	router.Use(middleware.ErrorReporter())

	router.GET("/healthz", common.LivenessProbe(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))
	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, st.checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout()))
	handler.RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("store", cfg.Fares.Store),
			zap.String("timezone", cfg.Fares.Timezone),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	log.Info("Shutting down server...")

	ctx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	st := &stores{checks: make(map[string]common.HealthCheckFunc)}

	switch cfg.Fares.Store {
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		st.closers = append(st.closers, func() { database.Close(pool) })
		st.checks["database"] = pool.Ping
		st.configs = fares.NewPostgresConfigStore(pool)
		st.rules = fares.NewPostgresSurgeRuleStore(pool)
		log.Info("Connected to PostgreSQL database")

	case config.StoreFirestore:
		client, err := database.NewFirestoreClient(ctx, &cfg.Firebase)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to firestore: %w", err)
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		st.checks["firestore"] = firestorePing(client)
		st.configs = fares.NewFirestoreConfigStore(client)
		st.rules = fares.NewFirestoreSurgeRuleStore(client)
		log.Info("Connected to Firestore", zap.String("project_id", cfg.Firebase.ProjectID))

	default:
		st.configs = fares.NewMemoryConfigStore()
		st.rules = fares.NewMemorySurgeRuleStore()
		log.Warn("Using in-memory fare store; data is lost on restart")
	}

	if cfg.Redis.Enabled {
		client, err := redis.NewRedisClient(&cfg.Redis)
		if err != nil {
			st.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		st.closers = append(st.closers, func() { _ = client.Close() })
		st.checks["redis"] = client.Ping
		st.configs = fares.NewCachedConfigRepository(st.configs, cache.NewManager(client), cfg.Fares.ConfigCacheTTL(), log)
		log.Info("Fare configuration cache enabled", zap.Duration("ttl", cfg.Fares.ConfigCacheTTL()))
	}

	return st, nil
}

func firestorePing(client *firestore.Client) common.HealthCheckFunc {
	return func(ctx context.Context) error {
		_, err := client.Collection(fares.FareConfigurationsCollection).Limit(1).Documents(ctx).GetAll()
		return err
	}
}
