package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nmarin/marketloop-backend/api/controllers"
	"github.com/nmarin/marketloop-backend/api/routes"
	"github.com/nmarin/marketloop-backend/internal/analytics"
	"github.com/nmarin/marketloop-backend/internal/categories"
	"github.com/nmarin/marketloop-backend/internal/favorites"
	"github.com/nmarin/marketloop-backend/internal/listings"
	"github.com/nmarin/marketloop-backend/internal/media"
	"github.com/nmarin/marketloop-backend/internal/messages"
	"github.com/nmarin/marketloop-backend/internal/users"
	"github.com/nmarin/marketloop-backend/internal/views"
	"github.com/nmarin/marketloop-backend/pkg/authprovider"
	"github.com/nmarin/marketloop-backend/pkg/config"
	"github.com/nmarin/marketloop-backend/pkg/db"
	"github.com/nmarin/marketloop-backend/pkg/logger"
	"github.com/nmarin/marketloop-backend/pkg/metrics"
	"github.com/nmarin/marketloop-backend/pkg/migrate"
	"github.com/nmarin/marketloop-backend/pkg/redis"
	"github.com/nmarin/marketloop-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap storage", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	mediaRepo := media.NewRepository(gormDB)
	categoryRepo := categories.NewRepository(gormDB)
	listingRepo := listings.NewRepository(gormDB)
	favoriteRepo := favorites.NewRepository(gormDB)
	messageRepo := messages.NewRepository(gormDB)
	viewRepo := views.NewRepository(gormDB)
	analyticsRepo := analytics.NewRepository(gormDB)
	userRepo := users.NewRepository(gormDB)

	mediaService, err := media.NewService(media.ServiceParams{
		Repo:         mediaRepo,
		Storage:      gcsClient,
		Logger:       logg,
		UploadFolder: cfg.Media.UploadFolder,
		MaxUploadMB:  cfg.Media.MaxUploadMB,
	})
	exitOnError(logg, "media service", err)

	categoryService, err := categories.NewService(categories.ServiceParams{
		CategoryRepo: categoryRepo,
	})
	exitOnError(logg, "categories service", err)

	listingService, err := listings.NewService(listings.ServiceParams{
		DB:           dbClient,
		ListingRepo:  listingRepo,
		CategoryRepo: categoryRepo,
		Media:        mediaService,
		Cache:        redisClient,
		CacheTTL:     cfg.Listings.SellerCacheTTL,
		Logger:       logg,
	})
	exitOnError(logg, "listings service", err)

	favoriteService, err := favorites.NewService(favorites.ServiceParams{
		FavoriteRepo: favoriteRepo,
		Listings:     listingService,
	})
	exitOnError(logg, "favorites service", err)

	messageService, err := messages.NewService(messages.ServiceParams{
		MessageRepo: messageRepo,
		Listings:    listingService,
		Users:       userRepo,
	})
	exitOnError(logg, "messages service", err)

	viewService, err := views.NewService(views.ServiceParams{
		ViewRepo: viewRepo,
		Listings: listingService,
	})
	exitOnError(logg, "views service", err)

	analyticsService, err := analytics.NewService(analytics.ServiceParams{
		AnalyticsRepo: analyticsRepo,
	})
	exitOnError(logg, "analytics service", err)

	userService, err := users.NewService(users.ServiceParams{
		DB:          dbClient,
		UserRepo:    userRepo,
		ListingRepo: listingRepo,
		Media:       mediaService,
		Identity:    authprovider.NewClient(cfg.Auth, logg),
		Logger:      logg,
	})
	exitOnError(logg, "users service", err)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	handler := routes.NewRouter(routes.Deps{
		Cfg:         cfg,
		Logg:        logg,
		HTTPMetrics: httpMetrics,
		Readiness: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"storage":  gcsClient,
		},
		Categories: categoryService,
		Listings:   listingService,
		Favorites:  favoriteService,
		Messages:   messageService,
		Views:      viewService,
		Analytics:  analyticsService,
		Users:      userService,
		Media:      mediaService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

func exitOnError(logg *logger.Logger, component string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(context.Background(), "component", component), "failed to build component", err)
	os.Exit(1)
}
