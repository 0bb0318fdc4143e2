package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dropout-risk-service/internal/adapters/primary/http/handlers"
	"dropout-risk-service/internal/adapters/primary/http/middleware"
	"dropout-risk-service/internal/adapters/secondary/gbdt"
	"dropout-risk-service/internal/adapters/secondary/kafka"
	"dropout-risk-service/internal/adapters/secondary/memcache"
	"dropout-risk-service/internal/adapters/secondary/metrics"
	"dropout-risk-service/internal/adapters/secondary/modelsource"
	"dropout-risk-service/internal/adapters/secondary/postgres"
	"dropout-risk-service/internal/adapters/secondary/rediscache"
	"dropout-risk-service/internal/config"
	"dropout-risk-service/internal/core/domain"
	output "dropout-risk-service/internal/core/ports/output"
	"dropout-risk-service/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	ctx := context.Background()

	// ============================================================================
	// Hexagonal Architecture Wiring
	// ============================================================================

	// Prediction store (Optional - based on config)
	var repo output.PredictionRepository
	if cfg.Database.Enabled {
		if cfg.Database.MigrateOnStart {
			if err := postgres.RunMigrations(cfg.Database.DSN()); err != nil {
				log.Fatalf("run migrations: %v", err)
			}
		}

		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("create db pool: %v", err)
		}
		defer pool.Close()

		repo = postgres.NewPredictionRepository(pool)
		log.Info("database connection established")
	} else {
		log.Info("prediction storage disabled")
	}

	// Probability cache
	var cache output.ProbabilityCache
	switch cfg.Cache.Backend {
	case "redis":
		client, err := rediscache.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warnf("redis init failed (continuing without cache): %v", err)
		} else {
			defer client.Close()
			cache = rediscache.NewProbabilityCache(client)
			log.Infof("redis cache at %s", cfg.Redis.Addr)
		}
	case "memory":
		cache = memcache.NewProbabilityCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
		log.Info("in-memory cache enabled")
	default:
		log.Info("probability cache disabled")
	}

	// Event publisher (Optional - based on config)
	var events output.EventPublisher
	if cfg.Kafka.Enabled {
		events = kafka.NewPublisher(&cfg.Kafka)
		defer events.Close()
		log.Infof("publishing prediction events to %s", cfg.Kafka.Topic)
	}

	minLevel, err := domain.ParseRiskLevel(cfg.Kafka.MinRiskLevel)
	if err != nil {
		log.Warnf("invalid KAFKA_MIN_RISK_LEVEL %q, using high", cfg.Kafka.MinRiskLevel)
		minLevel = domain.RiskLevelHigh
	}

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// Model
	source, err := modelsource.New(cfg)
	if err != nil {
		log.Fatalf("model source: %v", err)
	}
	loader := gbdt.NewLoader(source, cfg.Model.Format, cfg.Model.Version)

	var predictor output.Predictor
	if p, err := loader.Load(ctx); err != nil {
		log.Warnf("model load failed (serving without model): %v", err)
	} else {
		predictor = p
	}

	// Core Services (Application Layer)
	predictionSvc := services.NewPredictionService(predictor, loader, repo, cache, events, m, services.PredictionConfig{
		FallbackEnabled:   cfg.Model.FallbackEnabled,
		CacheTTL:          cfg.Cache.TTL,
		BatchMaxSize:      cfg.Batch.MaxSize,
		BatchConcurrency:  cfg.Batch.Concurrency,
		EventMinRiskLevel: minLevel,
	})
	analyticsSvc := services.NewAnalyticsService(repo)

	// Primary Adapter (HTTP Handlers)
	auth := middleware.NewAuth(&cfg.Auth)
	h := handlers.New(predictionSvc, analyticsSvc, auth)

	// Setup router
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Metrics(m),
		gin.Recovery(),
		middleware.CORS(cfg.CORS.AllowOrigins),
	)
	h.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
