package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voltbridge/markethub/internal/bundling"
	"github.com/voltbridge/markethub/internal/cron"
	"github.com/voltbridge/markethub/pkg/config"
	"github.com/voltbridge/markethub/pkg/db"
	"github.com/voltbridge/markethub/pkg/logger"
	"github.com/voltbridge/markethub/pkg/metrics"
	"github.com/voltbridge/markethub/pkg/migrate"
	"github.com/voltbridge/markethub/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "bundle-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bundle-worker",
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

	bundler, err := bundling.NewService(bundling.ServiceParams{
		Repo:   bundling.NewRepository(dbClient.DB()),
		Window: cfg.Bundling.Window(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create bundler", err)
		os.Exit(1)
	}

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)

	sweepJob, err := cron.NewBundleSweepJob(bundler, logg, jobMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create bundle sweep job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("bundle_sweep"), cfg.Bundling.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create sweep lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Bundling.SweepInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create job runner", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting bundle worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "bundle worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "bundle worker shutting down gracefully")
}
