package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable/api/swagger"
	"github.com/noah-isme/sma-timetable/internal/handler"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/cache"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
	"github.com/noah-isme/sma-timetable/pkg/logger"
)

// @title Course Timetable API
// @version 1.0.0
// @description Generates weekly course timetables for academic programs
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.Env, cfg.Log)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		redisClient = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	programRepo := repository.NewProgramRepository(db)
	resourceRepo := repository.NewResourceRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	runRepo := repository.NewAllocationRunRepository(db)
	settingsRepo := repository.NewSchedulerSettingsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Scheduler.CacheTTL, logr, redisClient != nil)
	settingsSvc := service.NewSettingsService(settingsRepo, programRepo, service.SettingsFromConfig(cfg.Scheduler.Defaults), validate, logr)
	timetableSvc := service.NewTimetableService(programRepo, resourceRepo, timetableRepo, settingsSvc, cacheSvc, metrics, validate, logr,
		service.TimetableServiceConfig{Enabled: cfg.Scheduler.Enabled, CacheTTL: cfg.Scheduler.CacheTTL})
	exportSvc := service.NewExportService(timetableRepo, programRepo, service.ExportConfig{PDFTitle: cfg.Export.PDFTitle}, logr, nil, nil)

	registry := service.NewRunRegistry()
	worker := service.NewAllocationWorker(runRepo, timetableSvc, registry, metrics, logr)
	queue := jobs.NewQueue("allocation", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Scheduler.Workers,
		BufferSize: cfg.Scheduler.QueueSize,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	runSvc := service.NewAllocationRunService(runRepo, programRepo, queue, registry, validate, logr, service.AllocationRunConfig{
		Enabled:   cfg.Scheduler.Enabled,
		Retention: cfg.Scheduler.RunRetention,
	})
	runSvc.StartCleanup(ctx)

	router := newRouter(cfg, logr, routeDeps{
		auth:      authSvc,
		metrics:   metrics,
		authH:     handler.NewAuthHandler(authSvc),
		timetable: handler.NewTimetableHandler(timetableSvc, exportSvc),
		runs:      handler.NewAllocationRunHandler(runSvc),
		settings:  handler.NewSettingsHandler(settingsSvc),
		health: handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
			"database": db,
			"cache":    handler.PingFunc(cacheRepo.Ping),
		}),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Warn("http shutdown error", zap.Error(err))
		}
	}()

	logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "scheduler_enabled", cfg.Scheduler.Enabled)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	logr.Info("server stopped")
}
