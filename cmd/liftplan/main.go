package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/liftplan/liftplan/internal/app"
	"github.com/liftplan/liftplan/internal/auth"
	"github.com/liftplan/liftplan/internal/cargo"
	"github.com/liftplan/liftplan/internal/contracts"
	"github.com/liftplan/liftplan/internal/observability"
	"github.com/liftplan/liftplan/internal/planning"
	"github.com/liftplan/liftplan/internal/platform/cache"
	"github.com/liftplan/liftplan/internal/platform/db"
	"github.com/liftplan/liftplan/internal/reconcile"
	"github.com/liftplan/liftplan/internal/shared"
	"github.com/liftplan/liftplan/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis connect", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)

	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	contractsRepo := contracts.NewRepository(dbpool)
	contractsHandler := contracts.NewHandler(logger, contractsRepo)

	planningRepo := planning.NewRepository(dbpool)
	planningService := planning.NewService(planningRepo, auditLogger, logger).WithMetrics(metrics)
	planningHandler := planning.NewHandler(logger, planningService)

	cargoRepo := cargo.NewRepository(dbpool)
	cargoService := cargo.NewService(cargoRepo, planningService, auditLogger, logger)
	cargoHandler := cargo.NewHandler(logger, cargoService)

	reconcileRepo := reconcile.NewRepository(dbpool)
	reconcileService := reconcile.NewService(reconcileRepo, redisClient, logger).WithMetrics(metrics)
	reconcileHandler := reconcile.NewHandler(logger, reconcileService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		AuthService:      authService,
		ContractsHandler: contractsHandler,
		PlanningHandler:  planningHandler,
		CargoHandler:     cargoHandler,
		ReconcileHandler: reconcileHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
