package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	ticketTypeRepo := repository.NewTicketTypeRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	slaPolicyRepo := repository.NewSlaPolicyRepository(pool)
	slaBreachRepo := repository.NewSlaBreachRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	suggestionRepo := repository.NewSuggestionRepository(pool)
	eventLogRepo := repository.NewEventLogRepository(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	accessService := access.NewService(projectRepo)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, roleRepo, tokenManager, accessService, cfg.Auth.BcryptCost)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		CommentRepo:    commentRepo,
		AttachmentRepo: attachmentRepo,
		ProjectRepo:    projectRepo,
		HistoryRepo:    historyRepo,
		FeedbackRepo:   feedbackRepo,
		Access:         accessService,
		Dispatcher:     dispatcher,
	})
	projectService := service.NewProjectService(service.ProjectDependencies{
		ProjectRepo:      projectRepo,
		TicketTypeRepo:   ticketTypeRepo,
		TicketRepo:       ticketRepo,
		SubscriptionRepo: subscriptionRepo,
		UserRepo:         userRepo,
		Access:           accessService,
	})
	slaService := service.NewSlaService(service.SlaDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		PolicyRepo:  slaPolicyRepo,
		BreachRepo:  slaBreachRepo,
		HistoryRepo: historyRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		SubscriptionRepo: subscriptionRepo,
		TicketRepo:       ticketRepo,
		ProjectRepo:      projectRepo,
		UserRepo:         userRepo,
		Cache:            redis.Client,
		Logger:           logger,
	})
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, ticketRepo, projectRepo, accessService)
	suggestionService := service.NewSuggestionService(suggestionRepo, userRepo, accessService, notificationService, dispatcher)
	analyticsService := service.NewAnalyticsService(ticketRepo, feedbackRepo, slaBreachRepo, accessService)
	auditService := service.NewAuditService(eventLogRepo)

	worker.StartEventWorkers(dispatcher, notificationService, auditService, slaService, ticketRepo)

	slaWorker := worker.NewSlaWorker(slaService, cfg.Sla.ScanInterval(), logger)
	go slaWorker.Run(ctx)

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Projects:       handlers.NewProjectsHandler(projectService, slaService),
		Subscriptions:  handlers.NewSubscriptionsHandler(subscriptionService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Suggestions:    handlers.NewSuggestionsHandler(suggestionService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
