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

	"github.com/caixaclaro/caixaclaro/internal/app"
	"github.com/caixaclaro/caixaclaro/internal/attachments"
	"github.com/caixaclaro/caixaclaro/internal/auth"
	"github.com/caixaclaro/caixaclaro/internal/dashboard"
	dashboardhttp "github.com/caixaclaro/caixaclaro/internal/dashboard/http"
	"github.com/caixaclaro/caixaclaro/internal/entities"
	"github.com/caixaclaro/caixaclaro/internal/entries"
	"github.com/caixaclaro/caixaclaro/internal/observability"
	"github.com/caixaclaro/caixaclaro/internal/platform/cache"
	"github.com/caixaclaro/caixaclaro/internal/platform/db"
	"github.com/caixaclaro/caixaclaro/internal/shared"
	"github.com/caixaclaro/caixaclaro/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "caixaclaro_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	reportCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardRepo := dashboard.NewRepository(dbpool)
	dashboardService := dashboard.NewService(dashboardRepo, reportCache, dashboard.Options{})
	dashboardHandler := dashboardhttp.NewHandler(logger, dashboardService)

	attachmentStore, err := attachments.NewStore(cfg.UploadDir)
	if err != nil {
		logger.Error("init attachment store", slog.Any("error", err))
		os.Exit(1)
	}

	entitiesRepo := entities.NewPGRepository(dbpool)
	entitiesService := entities.NewService(entitiesRepo, reportCache)
	entitiesHandler := entities.NewHandler(logger, entitiesService)

	entriesRepo := entries.NewPGRepository(dbpool)
	entriesService := entries.NewService(entriesRepo, entitiesRepo, attachmentStore, reportCache)
	entriesHandler := entries.NewHandler(logger, entriesService)

	metrics := observability.NewMetrics()

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
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		AuthHandler:      authHandler,
		EntitiesHandler:  entitiesHandler,
		EntriesHandler:   entriesHandler,
		DashboardHandler: dashboardHandler,
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
