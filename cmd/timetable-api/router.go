package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/handler"
	"github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/requestid"
)

type routeDeps struct {
	auth      middleware.TokenValidator
	metrics   *service.MetricsService
	authH     *handler.AuthHandler
	timetable *handler.TimetableHandler
	runs      *handler.AllocationRunHandler
	settings  *handler.SettingsHandler
	health    *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))

	r.GET("/health", deps.health.Health)
	r.GET("/ready", deps.health.Ready)
	r.GET("/metrics", deps.health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.POST("/auth/login", deps.authH.Login)

	programs := api.Group("/programs/:id")
	programs.GET("/timetable", deps.timetable.Get)
	programs.GET("/timetable/conflicts", deps.timetable.Conflicts)
	programs.GET("/timetable/export", deps.timetable.Export)

	admin := middleware.RequireRoles(middleware.SchedulerAdmins...)
	secured := programs.Group("", middleware.JWT(deps.auth), admin)
	secured.GET("/scheduler-settings", deps.settings.Get)
	secured.PUT("/scheduler-settings", deps.settings.Put)
	secured.POST("/timetable/generate", deps.timetable.Generate)
	secured.POST("/timetable/runs", deps.runs.Start)

	runs := api.Group("/timetable/runs", middleware.JWT(deps.auth), admin)
	runs.GET("/:runId", deps.runs.Get)
	runs.POST("/:runId/cancel", deps.runs.Cancel)

	return r
}
