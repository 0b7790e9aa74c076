package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicore/dispatch/cmd/mainconfig"
	"github.com/clinicore/dispatch/internal/api/router"
	appconfig "github.com/clinicore/dispatch/internal/config"
	"github.com/clinicore/dispatch/internal/dispatch"
	"github.com/clinicore/dispatch/internal/events"
	"github.com/clinicore/dispatch/internal/observability/metrics"
	"github.com/clinicore/dispatch/internal/resources"
	"github.com/clinicore/dispatch/internal/triage"
	"github.com/clinicore/dispatch/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dispatch API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dispatchMetrics := metrics.NewDispatchMetrics(nil)

	// Stores: postgres when configured, in-memory otherwise.
	var (
		resourceStore resources.Store
		requestStore  dispatch.RequestStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		resourceStore = resources.NewPostgresStore(pool)
		requestStore = dispatch.NewPostgresStore(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
		resourceStore = resources.NewInMemoryStore()
		requestStore = dispatch.NewInMemoryStore()
	}

	registry := resources.NewRegistry(resourceStore, cfg.BaseStation, logger.Component("resources"))
	if err := registry.Restore(ctx); err != nil {
		logger.Error("failed to restore registry", "error", err)
		os.Exit(1)
	}

	// Triage classifier, optionally backed by Bedrock.
	classifierOpts := []triage.Option{triage.WithTimeout(cfg.ClassifierTimeout)}
	externalName := ""
	needsAWS := cfg.BedrockModelID != "" || !cfg.UseMemoryQueue
	var queue events.Queue = events.NewMemoryQueue(64)
	if needsAWS {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		if cfg.BedrockModelID != "" {
			bedrock, err := triage.NewBedrockClassifier(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
			if err != nil {
				logger.Error("failed to initialize bedrock classifier", "error", err)
				os.Exit(1)
			}
			classifierOpts = append(classifierOpts, triage.WithExternal(bedrock))
			externalName = "AWS Bedrock"
		}
		if !cfg.UseMemoryQueue {
			queue = events.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.DispatchEventsQueueURL)
		}
	}
	classifier := triage.NewClassifier(logger.Component("triage"), classifierOpts...)

	// Assessment cache, only when redis is configured.
	var cache *triage.AssessmentCache
	if cfg.RedisAddr != "" {
		redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		cache = triage.NewAssessmentCache(redis.NewClient(redisOpts), cfg.AssessmentCacheTTL)
	}

	publisher := events.NewPublisher(queue, logger.Component("events"))
	notifier := events.NewNotifier(queue, dispatchMetrics, logger.Component("events"))
	go notifier.Run(ctx)

	coordinatorOpts := []dispatch.CoordinatorOption{
		dispatch.WithPublisher(publisher),
		dispatch.WithMetrics(dispatchMetrics),
	}
	if cache != nil {
		coordinatorOpts = append(coordinatorOpts, dispatch.WithCache(cache))
	}
	if externalName != "" {
		coordinatorOpts = append(coordinatorOpts, dispatch.WithExternalClassifierName(externalName))
	}
	coordinator := dispatch.NewCoordinator(requestStore, registry, classifier, logger.Component("dispatch"), coordinatorOpts...)

	routerCfg := &router.Config{
		Logger:             logger,
		ResourcesHandler:   resources.NewHandler(registry, logger.Component("resources")),
		DispatchHandler:    dispatch.NewHandler(coordinator, logger.Component("dispatch")),
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PublicRateLimit:    5,
		PublicRateBurst:    10,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
