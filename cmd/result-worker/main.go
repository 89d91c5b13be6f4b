package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/voltbridge/markethub/internal/audit"
	"github.com/voltbridge/markethub/internal/bundling"
	"github.com/voltbridge/markethub/internal/document"
	"github.com/voltbridge/markethub/internal/process"
	"github.com/voltbridge/markethub/internal/results"
	"github.com/voltbridge/markethub/internal/splitter"
	"github.com/voltbridge/markethub/pkg/bigquery"
	"github.com/voltbridge/markethub/pkg/config"
	"github.com/voltbridge/markethub/pkg/db"
	"github.com/voltbridge/markethub/pkg/idempotency"
	"github.com/voltbridge/markethub/pkg/logger"
	"github.com/voltbridge/markethub/pkg/migrate"
	"github.com/voltbridge/markethub/pkg/pubsub"
	"github.com/voltbridge/markethub/pkg/redis"
)

// Redeliveries older than this are treated as new results again.
const resultIdempotencyTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "result-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "result-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub", err)
		}
	}()

	bigqueryClient, err := bigquery.NewClient(context.Background(), cfg.GCP, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap bigquery", err)
		os.Exit(1)
	}
	defer func() {
		if err := bigqueryClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing bigquery", err)
		}
	}()

	processService, err := process.NewService(process.ServiceParams{
		Repo: process.NewRepository(dbClient.DB()),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create process service", err)
		os.Exit(1)
	}

	renderer, err := document.NewRenderer(document.NewRegistry())
	if err != nil {
		logg.Error(context.Background(), "failed to create document renderer", err)
		os.Exit(1)
	}

	bundler, err := bundling.NewService(bundling.ServiceParams{
		Repo:   bundling.NewRepository(dbClient.DB()),
		Window: cfg.Bundling.Window(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create bundler", err)
		os.Exit(1)
	}

	auditWriter, err := audit.NewWriter(bigqueryClient, cfg.BigQuery, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create audit writer", err)
		os.Exit(1)
	}

	handler, err := results.NewHandler(results.HandlerParams{
		Processes:    processService,
		Splitter:     splitter.New(),
		Renderer:     renderer,
		Bundler:      bundler,
		Audit:        auditWriter,
		Logger:       logg,
		SenderNumber: cfg.Sender.ActorNumber,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create result handler", err)
		os.Exit(1)
	}

	idempotencyManager, err := idempotency.NewManager(redisClient, resultIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := results.NewConsumer(handler, pubsubClient.CalculationResultSubscription(), idempotencyManager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create result consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		PubSub:         pubsubClient,
		BigQuery:       bigqueryClient,
		ResultConsumer: consumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting result worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "result worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "result worker shutting down gracefully")
}
