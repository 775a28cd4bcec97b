package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-market-sync/internal/auth"
	"github.com/justsurfingit/job-market-sync/internal/cache"
	"github.com/justsurfingit/job-market-sync/internal/config"
	"github.com/justsurfingit/job-market-sync/internal/database"
	"github.com/justsurfingit/job-market-sync/internal/events"
	"github.com/justsurfingit/job-market-sync/internal/handlers"
	"github.com/justsurfingit/job-market-sync/internal/logging"
	"github.com/justsurfingit/job-market-sync/internal/scheduler"
	"github.com/justsurfingit/job-market-sync/internal/services"
	"github.com/justsurfingit/job-market-sync/internal/telemetry"
)

const (
	serviceName    = "job-market-sync"
	serviceVersion = "1.0.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load Environment Variables (.env is optional)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("could not read .env: %v", err)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTracer, err := telemetry.InitTracer(ctx, serviceName, serviceVersion, cfg.OTelCollectorURL)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}

	// 2. Database Connection
	db, err := database.Open(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("failed to get sql handle", zap.Error(err))
	}
	store := database.NewPostingStore(db, logger)

	// 3. Optional infrastructure: stats cache and ingestion events
	var statsCache cache.Cache = cache.Noop{}
	if cfg.RedisURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, stats are not cached", zap.Error(err))
		} else {
			statsCache = rc
			logger.Info("stats cache enabled")
		}
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, cfg.HTTPTimeout, logger)
		if err != nil {
			logger.Warn("nats unavailable, ingestion events are dropped", zap.Error(err))
		} else {
			publisher = p
			logger.Info("ingestion events enabled", zap.String("subject", cfg.NATSSubject))
		}
	}

	// 4. Initialize Core Services (Dependencies)
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	tokens := auth.NewTokenProvider(cfg.TokenURL, httpClient, auth.EnvCredentials, logger)
	fetcher := services.NewPostingFetcher(cfg.SearchURL, cfg.ResultRange, httpClient, tokens, logger)
	historical := services.NewHistoricalAggregator(fetcher, cfg.HistoricalStepDays, logger)
	stats := services.NewStatsService(store, statsCache, cfg.CacheTTL, logger)
	ingestion := services.NewIngestionService(fetcher, historical, store, stats, publisher, logger)

	var sched *scheduler.Scheduler
	if cfg.DailySchedule != "" {
		sched = scheduler.New(cfg.DailySchedule, ingestion, 2*cfg.HTTPTimeout, logger)
		if err := sched.Start(ctx); err != nil {
			logger.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	// 5. Setup Router & Routes
	router := handlers.NewRouter(handlers.RouterDeps{
		Postings: handlers.NewPostingHandler(ingestion, store, logger),
		Stats:    handlers.NewStatsHandler(stats, logger),
		Health:   handlers.NewHealthHandler(sqlDB, serviceVersion),
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	publisher.Close()
	if err := statsCache.Close(); err != nil {
		logger.Warn("closing cache", zap.Error(err))
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("closing database", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
}
