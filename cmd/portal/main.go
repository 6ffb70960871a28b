package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/savings-portal/internal/api/http"
	"github.com/spec-kit/savings-portal/internal/api/http/handlers"
	"github.com/spec-kit/savings-portal/internal/backend"
	"github.com/spec-kit/savings-portal/internal/bootstrap"
	"github.com/spec-kit/savings-portal/internal/config"
	"github.com/spec-kit/savings-portal/internal/events"
	"github.com/spec-kit/savings-portal/internal/guard"
	"github.com/spec-kit/savings-portal/internal/observability"
	"github.com/spec-kit/savings-portal/internal/persistence"
	"github.com/spec-kit/savings-portal/internal/repository"
	"github.com/spec-kit/savings-portal/internal/service"
	"github.com/spec-kit/savings-portal/internal/session"
	"github.com/spec-kit/savings-portal/internal/worker"
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

	storage, deps, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open session storage", zap.String("driver", cfg.Session.Storage), zap.Error(err))
	}
	defer closeStorage()

	metrics := observability.NewMetrics("portal")
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartSessionAuditWorker(service.NewSessionAuditService(dispatcher, logger, metrics))

	flag := session.NewCookieFlag(cfg.Session.CookieName)
	store := session.NewStore(session.Options{
		Storage:    storage,
		Flag:       flag,
		Dispatcher: dispatcher,
		Logger:     logger.Named("session"),
		DefaultTTL: cfg.Session.DefaultTTL(),
		MaxTTL:     cfg.Session.MaxTTL(),
	})

	client, err := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout(), backend.WithLogger(logger.Named("backend")))
	if err != nil {
		logger.Fatal("failed to build backend client", zap.Error(err))
	}

	bootstrapper := bootstrap.New(store, client, bootstrap.Options{
		Logger:      logger.Named("bootstrap"),
		Dispatcher:  dispatcher,
		CallTimeout: cfg.Session.BootstrapTimeout(),
	})
	go bootstrapper.Run(ctx)

	routeGuard := guard.New(guard.DefaultRoutes(), guard.WithRecorder(metrics))
	authService := service.NewAuthService(client, store, logger.Named("auth"))

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:   logger,
		Metrics:  metrics,
		Timeout:  cfg.App.RequestTimeout(),
		Sessions: store,
	})
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, deps),
		Session:      handlers.NewSessionHandler(authService, store, bootstrapper),
		Screens:      handlers.NewScreensHandler(routeGuard, store),
		Guard:        routeGuard,
		Metrics:      metrics,
		CookieName:   cfg.Session.CookieName,
		Sessions:     store,
		Flag:         flag,
		CookieSecure: cfg.Session.CookieSecure,
	})

	go func() {
		logger.Info("portal listening", zap.String("addr", cfg.App.Addr()), zap.String("storage", cfg.Session.Storage))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

// openStorage builds the durable session storage selected by
// SESSION_STORAGE, along with the dependencies readiness should ping.
func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (session.Storage, map[string]handlers.Pinger, func(), error) {
	noop := func() {}
	switch cfg.Session.Storage {
	case config.StorageMemory:
		return session.NewMemoryStorage(), nil, noop, nil
	case config.StorageFile:
		fs, err := session.NewFileStorage(cfg.Session.FilePath, cfg.Session.FileKey)
		if err != nil {
			return nil, nil, noop, err
		}
		logger.Info("session file storage", zap.String("path", cfg.Session.FilePath), zap.Bool("encrypted", cfg.Session.FileKey != ""))
		return fs, nil, noop, nil
	case config.StorageRedis:
		rdb, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, nil, noop, err
		}
		deps := map[string]handlers.Pinger{"redis": rdb}
		return repository.NewRedisSessionRepository(rdb.Client, cfg.Session.KeyPrefix), deps, rdb.Close, nil
	case config.StoragePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, noop, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, nil, noop, err
			}
		}
		deps := map[string]handlers.Pinger{"postgres": pg}
		return repository.NewPostgresSessionRepository(pg.Pool, cfg.Session.KeyPrefix), deps, pg.Close, nil
	default:
		return nil, nil, noop, fmt.Errorf("unknown session storage %q", cfg.Session.Storage)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
