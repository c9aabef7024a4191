package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/classifier"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/media"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/queue"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/scheduler"
	"github.com/spec-kit/complaint-service/internal/service"
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

	mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("failed to connect mongodb", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	mediaStore, err := media.NewObjectStore(cfg.Media)
	if err != nil {
		logger.Fatal("failed to init media store", zap.Error(err))
	}
	if err := mediaStore.EnsureBucket(ctx); err != nil {
		logger.Warn("media bucket check failed", zap.Error(err))
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	complaintRepo := repository.NewComplaintRepository(mongo.Database)
	userRepo := repository.NewUserRepository(mongo.Database)

	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, userRepo)
	statsService := service.NewStatsService(userRepo, complaintRepo, redis.Client, logger)
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo: complaintRepo,
		Media:         mediaStore,
		Classifier:    classifier.NewHTTPClient(cfg.Classifier, logger),
		Fallback: classifier.FallbackPolicy{
			DepartmentEmail: cfg.Classifier.FallbackDepartmentEmail,
			DepartmentName:  cfg.Classifier.FallbackDepartmentName,
		},
		Dispatcher: queue.NewDispatcher(asynqClient),
		Metrics:    metrics,
		Logger:     logger,
	})

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // embedded proof images arrive inline
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, mongo, redis),
		Users:          handlers.NewUsersHandler(authService, statsService),
		Complaints:     handlers.NewComplaintsHandler(complaintService),
		AuthMiddleware: authMiddleware,
	})

	keepalive, err := scheduler.NewKeepalive(cfg.Keepalive, logger)
	if err != nil {
		logger.Fatal("failed to init keepalive scheduler", zap.Error(err))
	}
	keepalive.Start()
	defer keepalive.Stop()

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
