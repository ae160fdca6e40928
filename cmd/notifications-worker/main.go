package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/aislice/aislice-backend/internal/notifications"
	"github.com/aislice/aislice-backend/internal/users"
	"github.com/aislice/aislice-backend/pkg/config"
	"github.com/aislice/aislice-backend/pkg/db"
	"github.com/aislice/aislice-backend/pkg/logger"
	"github.com/aislice/aislice-backend/pkg/migrate"
	"github.com/aislice/aislice-backend/pkg/outbox/idempotency"
	"github.com/aislice/aislice-backend/pkg/pubsub"
	"github.com/aislice/aislice-backend/pkg/redis"
)

const consumerIdempotencyTTL = 7 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "notifications-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "notifications-worker"

	logg = logger.New(logger.Options{
		ServiceName: "notifications-worker",
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
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	idempotencyManager, err := idempotency.NewManager(redisClient, consumerIdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	consumer, err := notifications.NewConsumer(
		notifications.NewRepository(dbClient.DB()),
		users.NewRepository(dbClient.DB()),
		pubsubClient.NotificationSubscription(),
		idempotencyManager,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications consumer", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "notifications-worker",
	})
	logg.Info(ctx, "starting notifications worker")

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "notifications worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "notifications worker shutting down gracefully")
}
