package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/nmarin/marketloop-backend/internal/media"
	"github.com/nmarin/marketloop-backend/internal/media/consumer"
	"github.com/nmarin/marketloop-backend/pkg/config"
	"github.com/nmarin/marketloop-backend/pkg/db"
	"github.com/nmarin/marketloop-backend/pkg/logger"
	"github.com/nmarin/marketloop-backend/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "media-deleted-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "media-deleted-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	deletionConsumer, err := consumer.NewDeletionConsumer(
		media.NewRepository(dbClient.DB()),
		pubsubClient.MediaDeletionSubscription(),
		logg,
	)
	requireResource(ctx, logg, "media deletion consumer", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{"env": cfg.App.Env})
	logg.Info(runCtx, "media deleted worker ready")

	if err := deletionConsumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "media deleted worker stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
