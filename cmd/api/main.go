package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/mdfarid01/RapidTrack/internal/api/http"
	"github.com/mdfarid01/RapidTrack/internal/api/http/handlers"
	"github.com/mdfarid01/RapidTrack/internal/auth"
	"github.com/mdfarid01/RapidTrack/internal/cache"
	"github.com/mdfarid01/RapidTrack/internal/clock"
	"github.com/mdfarid01/RapidTrack/internal/config"
	"github.com/mdfarid01/RapidTrack/internal/engine"
	"github.com/mdfarid01/RapidTrack/internal/events"
	"github.com/mdfarid01/RapidTrack/internal/observability"
	"github.com/mdfarid01/RapidTrack/internal/persistence"
	"github.com/mdfarid01/RapidTrack/internal/repository"
	"github.com/mdfarid01/RapidTrack/internal/service"
	"github.com/mdfarid01/RapidTrack/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var stores repository.Stores
	if pool != nil {
		stores = repository.Stores{
			Users:      repository.NewUserRepository(pool),
			Issues:     repository.NewIssueRepository(pool),
			Activities: repository.NewActivityRepository(pool),
		}
	} else {
		stores = repository.NewMemoryStores().Stores()
	}

	var slaCache cache.SLACache
	if !cfg.Redis.DisableSLACache && redis.Client != nil {
		slaCache = cache.NewRedisSLACache(redis.Client, cfg.Redis.SLACacheTTL(), logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	clk := clock.System()
	eng := engine.New(engine.Dependencies{
		Stores:     stores,
		Clock:      clk,
		Dispatcher: dispatcher,
		SLACache:   slaCache,
	})

	authService := service.NewAuthService(*cfg, stores.Users, clk)
	if err := authService.SeedAdmin(ctx); err != nil {
		logger.Fatal("failed to seed admin account", zap.Error(err))
	}
	authMiddleware := auth.NewMiddleware(authService.TokenManager(), stores.Users)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Issues:         handlers.NewIssuesHandler(eng),
		Analytics:      handlers.NewAnalyticsHandler(eng),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
