package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"optiflow/internal/adapters/clickhouse"
	"optiflow/internal/adapters/config"
	"optiflow/internal/adapters/errors/noop"
	"optiflow/internal/adapters/errors/sentry"
	"optiflow/internal/adapters/fyers"
	"optiflow/internal/adapters/kafka"
	"optiflow/internal/adapters/postgres"
	"optiflow/internal/adapters/redis"
	"optiflow/internal/adapters/telegram"
	"optiflow/internal/analytics"
	"optiflow/internal/api"
	"optiflow/internal/domain/market"
	"optiflow/internal/events"
	"optiflow/internal/metrics"
	chrepo "optiflow/internal/repository/clickhouse"
	pgrepo "optiflow/internal/repository/postgres"
	"optiflow/internal/services/alerts"
	"optiflow/internal/services/history"
	"optiflow/internal/services/notification"
	"optiflow/internal/workers"
	chainworker "optiflow/internal/workers/chain"
	"optiflow/pkg/errors"
	"optiflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage
	pgClient, err := postgres.NewClient(cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer pgClient.Close()

	chClient, err := clickhouse.NewClient(cfg.ClickHouse)
	if err != nil {
		log.Fatalf("Failed to connect to ClickHouse: %v", err)
	}
	defer chClient.Close()

	redisClient, err := redis.NewClient(cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	signalRepo := pgrepo.NewSignalRepository(pgClient.DB())
	if err := signalRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare signal schema: %v", err)
	}

	chainRepo := chrepo.NewChainRepository(chClient.Conn())
	if err := chainRepo.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to prepare chain schema: %v", err)
	}

	// Providers
	tokens := fyers.NewTokenStore(cfg.Fyers.TokenFile)
	broker := fyers.NewClient(cfg.Fyers, tokens)

	// Services
	state := market.NewState(market.Symbols())
	engine := analytics.NewEngine()
	historyService := history.NewService(chainRepo)
	alertStore := alerts.NewService()
	notifyService := initNotifications(cfg, redisClient, log)
	publisher := initPublisher(cfg, log)

	// API
	hub := api.NewHub()
	handlers := api.NewHandlers(state, historyService, signalRepo, alertStore)
	server := api.NewServer(cfg.API.Addr(), handlers, hub)

	// Workers
	scheduler := workers.NewScheduler(cfg.Workers.SuspendDelay)
	scheduler.RegisterWorker(chainworker.NewCollector(
		cfg.Workers.ChainCollectorInterval,
		broker, broker, tokens,
		engine, state,
		chainRepo, signalRepo,
		redisClient, publisher, notifyService, hub,
	))
	scheduler.RegisterWorker(chainworker.NewCleanup(
		cfg.Workers.CleanupInterval, cfg.Workers.Retention, chainRepo,
	))

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start workers: %v", err)
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Errorf("HTTP server error: %v", err)
			cancel()
		}
	}()

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, scheduler, server, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initNotifications wires the Telegram alert channel when configured
func initNotifications(cfg *config.Config, redisClient *redis.Client, log *logger.Logger) *notification.Service {
	if !cfg.Telegram.Enabled() {
		log.Info("Telegram alerts disabled")
		return notification.NewService(nil, nil, 0)
	}

	bot, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		log.Warnf("Failed to initialize Telegram bot: %v", err)
		return notification.NewService(nil, nil, 0)
	}

	log.Info("Telegram alerts enabled")
	return notification.NewService(bot, redisClient, cfg.Workers.NotifyCooldown)
}

// initPublisher wires the Kafka signal event stream when configured
func initPublisher(cfg *config.Config, log *logger.Logger) events.Publisher {
	if !cfg.Kafka.Enabled {
		log.Info("Kafka signal events disabled")
		return events.NoopPublisher{}
	}

	log.Infof("Kafka signal events enabled, brokers=%v", cfg.Kafka.Brokers)
	return events.NewKafkaPublisher(kafka.NewProducer(cfg.Kafka.Brokers))
}

// waitForShutdown blocks until a termination signal and then stops the
// workers and the HTTP server in order
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, scheduler *workers.Scheduler, server *api.Server, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("Shutting down...")

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Worker shutdown: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown: %v", err)
	}

	cancel()

	if errorTracker != nil {
		if err := errorTracker.Flush(shutdownCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
