package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/queue-service/internal/api/http"
	"github.com/spec-kit/queue-service/internal/api/http/handlers"
	"github.com/spec-kit/queue-service/internal/auth"
	"github.com/spec-kit/queue-service/internal/config"
	"github.com/spec-kit/queue-service/internal/events"
	"github.com/spec-kit/queue-service/internal/observability"
	"github.com/spec-kit/queue-service/internal/persistence"
	"github.com/spec-kit/queue-service/internal/repository"
	"github.com/spec-kit/queue-service/internal/service"
	"github.com/spec-kit/queue-service/internal/worker"
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

	location, err := cfg.Queue.Location()
	if err != nil {
		logger.Fatal("invalid queue timezone", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.PoolHandle() != nil {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		serviceRepo    repository.ServiceTypeRepository
		ticketRepo     repository.TicketRepository
		attendantRepo  repository.AttendantRepository
		assignmentRepo repository.AssignmentRepository
	)
	if pool := pg.PoolHandle(); pool != nil {
		serviceRepo = repository.NewServiceTypeRepository(pool)
		ticketRepo = repository.NewTicketRepository(pool)
		attendantRepo = repository.NewAttendantRepository(pool)
		assignmentRepo = repository.NewAssignmentRepository(pool)
	} else {
		logger.Warn("running on in-memory store; state is not durable")
		store := repository.NewMemoryStore()
		serviceRepo = store.ServiceTypes()
		ticketRepo = store.Tickets()
		attendantRepo = store.Attendants()
		assignmentRepo = store.Assignments()
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	metrics := observability.NewMetrics()
	clock := service.NewSystemClock(location)

	catalogService := service.NewCatalogService(serviceRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		ServiceRepo:   serviceRepo,
		TicketRepo:    ticketRepo,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Clock:         clock,
		RetryAttempts: cfg.Queue.SequenceRetryAttempts,
	})
	attendantService := service.NewAttendantService(service.AttendantDependencies{
		AttendantRepo: attendantRepo,
		ServiceRepo:   serviceRepo,
		Dispatcher:    dispatcher,
	})
	dispatchService := service.NewDispatchService(service.DispatchDependencies{
		TicketRepo:     ticketRepo,
		AttendantRepo:  attendantRepo,
		AssignmentRepo: assignmentRepo,
		ServiceRepo:    serviceRepo,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Clock:          clock,
	})
	ledgerService := service.NewLedgerService(service.LedgerDependencies{
		AssignmentRepo: assignmentRepo,
		TicketRepo:     ticketRepo,
		ServiceRepo:    serviceRepo,
		Clock:          clock,
		RecentLimit:    cfg.Queue.RecentCallLimit,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, redis.Client, cfg.Queue.DisplayChannel)
	worker.StartDisplayWorker(notificationService)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService, ledgerService),
		Dispatch:       handlers.NewDispatchHandler(dispatchService, ledgerService),
		Attendants:     handlers.NewAttendantsHandler(attendantService),
		Services:       handlers.NewServicesHandler(catalogService),
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
