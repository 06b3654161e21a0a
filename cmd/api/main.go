package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/sweeper"
	"github.com/spec-kit/helpdesk-service/internal/worker"
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	historyRepo := repository.NewTicketHistoryRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	commentRepo := repository.NewTicketCommentRepository(pool)
	referenceRepo := repository.NewReferenceRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)

	engine := lifecycle.NewEngine(authz.DefaultPolicy(), cfg.Workflow.MaxReopens)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:   userRepo,
		ResetRepo:  resetRepo,
		Tokens:     tokens,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
		ResetTTL:   cfg.Auth.PasswordResetTTL(),
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		HistoryRepo:  historyRepo,
		FeedbackRepo: feedbackRepo,
		CommentRepo:  commentRepo,
		UserRepo:     userRepo,
		Engine:       engine,
		Dispatcher:   dispatcher,
		Logger:       logger,
		Retries:      cfg.Workflow.TransitionRetries,
	})
	notificationService := service.NewNotificationService(notificationRepo, logger)

	notificationWorker := worker.NewNotificationWorker(cfg.Notification, logger)
	notificationWorker.Register(dispatcher)

	var lease sweeper.Lease
	if client := redis.ClientHandle(); client != nil {
		lease = sweeper.NewRedisLease(client)
	}
	sweep := sweeper.New(sweeper.Dependencies{
		Workflow:   cfg.Workflow,
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Closer:     ticketService,
		Dispatcher: dispatcher,
		Lease:      lease,
		Logger:     logger,
		Metrics:    metrics,
	})
	if err := sweep.Start(); err != nil {
		logger.Fatal("failed to start sweeper", zap.Error(err))
	}
	defer sweep.Stop()

	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Workflow:       handlers.NewWorkflowHandler(ticketService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Reference:      handlers.NewReferenceHandler(referenceRepo),
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
