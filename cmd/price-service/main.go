package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/LavaJover/shvark-price-service/internal/app/background"
	"github.com/LavaJover/shvark-price-service/internal/config"
	"github.com/LavaJover/shvark-price-service/internal/delivery/http/handlers"
	"github.com/LavaJover/shvark-price-service/internal/delivery/http/routes"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/kafka"
	pglogger "github.com/LavaJover/shvark-price-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-price-service/internal/infrastructure/postgres/repository/recompute"
	"github.com/LavaJover/shvark-price-service/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()
	logger := setupLogger(cfg)
	// Init database
	db := postgres.MustInitDB(cfg)

	if cfg.PriceDB.MigrationsPath != "" {
		if err := migrate.RunMigrations(db, cfg.PriceDB.MigrationsPath); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
	}

	brokers := []string{fmt.Sprintf("%s:%s", cfg.KafkaService.Host, cfg.KafkaService.Port)}
	pub := kafka.NewDefaultKafkaPublisher(brokers)
	sub := kafka.NewDefaultKafkaSubscriber(brokers)

	recomputeMetrics := metrics.NewRecomputeMetrics()

	// Init repos
	correctionRepo := repository.NewDefaultCorrectionRepository(db)
	retailerRepo := repository.NewDefaultRetailerRepository(db)
	jobRepo := repository.NewDefaultRecomputeJobRepository(db)
	outboxRepo := repository.NewDefaultOutboxRepository(db)
	visiblePriceRepo := repository.NewDefaultVisiblePriceRepository(db)

	// Audit logger
	eventLogger := pglogger.NewPGCorrectionEventLogger(db)

	rc := cfg.Recompute

	// Engine + workers
	engine := recompute.NewEngine(db, correctionRepo, rc.Lookback, rc.BatchSize, logger)
	worker := recompute.NewWorker(
		engine,
		jobRepo,
		sub,
		pub,
		rc.Topic,
		rc.GroupID,
		rc.WorkerConcurrency,
		rc.LeaseTTL,
		recomputeMetrics,
		logger,
	)
	watchdog := recompute.NewWatchdog(jobRepo, pub, rc.Topic, rc.WatchdogInterval, logger)
	relay := recompute.NewOutboxRelay(outboxRepo, pub, rc.Topic, rc.OutboxInterval, recomputeMetrics, logger)

	// Периодический FULL-пересчет только на назначенном инстансе
	var scheduler *recompute.Scheduler
	if rc.SchedulerEnabled {
		scheduler = recompute.NewScheduler(db, jobRepo, pub, rc.Topic, rc.ScheduleInterval, rc.InstanceID, rc.MaxAttempts, logger)
	}

	// Init usecases
	correctionUsecase := usecase.NewDefaultCorrectionUsecase(
		correctionRepo,
		retailerRepo,
		eventLogger,
		recomputeMetrics,
		rc.MaxAttempts,
		logger,
	)
	recomputeUsecase := usecase.NewDefaultRecomputeUsecase(
		jobRepo,
		pub,
		worker,
		recomputeMetrics,
		rc.Topic,
		rc.MaxAttempts,
		logger,
	)

	// HTTP server
	app := fiber.New()
	routes.RegisterSystemRoutes(app)
	routes.RegisterCorrectionRoutes(app, handlers.NewCorrectionHandler(correctionUsecase))
	routes.RegisterRecomputeRoutes(app, handlers.NewRecomputeHandler(recomputeUsecase))
	routes.RegisterVisiblePriceRoutes(app, handlers.NewVisiblePriceHandler(visiblePriceRepo))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bt := background.NewBackgroundTasks(scheduler, watchdog, relay, worker, logger)
	bt.StartAll(ctx)

	addr := fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
	go func() {
		log.Printf("HTTP server started on %s\n", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("failed to serve: %v\n", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")
	if err := app.Shutdown(); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
}

func setupLogger(cfg *config.PriceConfig) *slog.Logger {
	var level slog.Level
	switch cfg.LogConfig.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogConfig.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
