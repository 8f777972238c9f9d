package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/alpha10/acs-api/api/swagger"
	"github.com/alpha10/acs-api/internal/handler"
	"github.com/alpha10/acs-api/internal/identity"
	auth0provider "github.com/alpha10/acs-api/internal/identity/auth0"
	localprovider "github.com/alpha10/acs-api/internal/identity/local"
	"github.com/alpha10/acs-api/internal/middleware"
	"github.com/alpha10/acs-api/internal/models"
	"github.com/alpha10/acs-api/internal/repository"
	"github.com/alpha10/acs-api/internal/service"
	"github.com/alpha10/acs-api/pkg/cache"
	"github.com/alpha10/acs-api/pkg/config"
	"github.com/alpha10/acs-api/pkg/database"
	"github.com/alpha10/acs-api/pkg/jobs"
	"github.com/alpha10/acs-api/pkg/logger"
	corsmiddleware "github.com/alpha10/acs-api/pkg/middleware/cors"
	reqidmiddleware "github.com/alpha10/acs-api/pkg/middleware/requestid"
	"github.com/alpha10/acs-api/pkg/storage"
)

// @title ACS API
// @version 1.0.0
// @description Authorization and resource lifecycle backend for the academy platform
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	provider, err := buildIdentityProvider(ctx, cfg)
	if err != nil {
		logr.Sugar().Fatalw("failed to init identity provider", "error", err)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	classRepo := repository.NewClassRepository(db)
	liveClassRepo := repository.NewLiveClassRepository(db)
	routineRepo := repository.NewRoutineRepository(db)

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, listing cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	metricsSvc := service.NewMetricsService()
	directorySvc := service.NewDirectoryService(userRepo, validate, logr)
	accountSvc := service.NewAccountService(provider, userRepo, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, validate, logr)

	var classSvc *service.ClassService
	if cacheRepo != nil {
		classSvc = service.NewClassService(classRepo, cacheRepo, cfg.Cache.ListingTTL, validate, logr).WithMetrics(metricsSvc)
	} else {
		classSvc = service.NewClassService(classRepo, nil, cfg.Cache.ListingTTL, validate, logr)
	}
	liveClassSvc := service.NewLiveClassService(liveClassRepo, validate, logr)
	routineSvc := service.NewRoutineService(routineRepo, validate, logr)

	userHandler := handler.NewUserHandler(directorySvc, accountSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc)
	classHandler := handler.NewClassHandler(classSvc, directorySvc)
	liveClassHandler := handler.NewLiveClassHandler(liveClassSvc, directorySvc)
	routineHandler := handler.NewRoutineHandler(routineSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	var exportHandler *handler.ExportHandler
	if cfg.Exports.Enabled {
		exportJobSvc, queue, err := buildExportPipeline(cfg, db, userRepo, applicationRepo, classRepo, logr)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export pipeline", "error", err)
		}
		queue.Start(ctx)
		defer queue.Stop()
		exportJobSvc.RecoverPendingJobs(ctx)
		exportJobSvc.StartCleanup(ctx)
		exportHandler = handler.NewExportHandler(exportJobSvc)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authn := middleware.Authenticate(provider)
	adminOnly := middleware.RequireRoles(directorySvc, models.RoleAdmin)
	teacherOrAdmin := middleware.RequireRoles(directorySvc, models.RoleTeacher, models.RoleAdmin)

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("", authn, userHandler.Register)
			users.GET("/role/:email", authn, userHandler.RoleOf)
			users.GET("", authn, adminOnly, userHandler.List)
			users.GET("/search", authn, adminOnly, userHandler.Search)
			users.PATCH("/role/:email", authn, adminOnly, userHandler.SetRole)
			users.DELETE("/:id", authn, adminOnly, userHandler.Delete)
			users.DELETE("/accounts/:email", authn, adminOnly, userHandler.Purge)
		}

		teachers := api.Group("/teachers")
		{
			teachers.POST("", applicationHandler.Submit)
			teachers.GET("", authn, adminOnly, applicationHandler.List)
			teachers.GET("/:id", authn, adminOnly, applicationHandler.Get)
			teachers.PATCH("/:id", authn, adminOnly, applicationHandler.Review)
			teachers.DELETE("/:id", authn, adminOnly, applicationHandler.Delete)
		}

		classes := api.Group("/classes")
		{
			classes.GET("", classHandler.List)
			classes.GET("/mine", authn, teacherOrAdmin, classHandler.Mine)
			classes.GET("/:id", classHandler.Get)
			classes.POST("", authn, teacherOrAdmin, classHandler.Create)
			classes.PATCH("/:id", authn, teacherOrAdmin, middleware.RequireOwner(classSvc.OwnerEmail), classHandler.Update)
			classes.DELETE("/:id", authn, teacherOrAdmin, middleware.RequireOwner(classSvc.OwnerEmail), classHandler.Delete)
		}

		liveClasses := api.Group("/live-classes")
		{
			liveClasses.GET("", liveClassHandler.List)
			liveClasses.GET("/mine", authn, teacherOrAdmin, liveClassHandler.Mine)
			liveClasses.GET("/:id", liveClassHandler.Get)
			liveClasses.POST("", authn, teacherOrAdmin, liveClassHandler.Create)
			liveClasses.DELETE("/:id", authn, teacherOrAdmin, middleware.RequireOwner(liveClassSvc.OwnerEmail), liveClassHandler.Delete)
		}

		routines := api.Group("/routines")
		{
			routines.GET("", routineHandler.List)
			routines.POST("", authn, teacherOrAdmin, routineHandler.Create)
			routines.DELETE("/:id", authn, teacherOrAdmin, middleware.RequireOwner(routineSvc.OwnerEmail), routineHandler.Delete)
		}

		if exportHandler != nil {
			exports := api.Group("/exports")
			{
				exports.POST("", authn, adminOnly, exportHandler.Create)
				exports.GET("/:id", authn, adminOnly, exportHandler.Status)
				exports.GET("/download/:token", exportHandler.Download)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "identity_mode", cfg.Identity.Mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	if err := srv.Shutdown(context.Background()); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}

func buildIdentityProvider(ctx context.Context, cfg *config.Config) (identity.Provider, error) {
	switch cfg.Identity.Mode {
	case config.IdentityModeAuth0:
		return auth0provider.New(ctx, auth0provider.Config{
			Domain:       cfg.Identity.Auth0.Domain,
			Audience:     cfg.Identity.Auth0.Audience,
			ClientID:     cfg.Identity.Auth0.ClientID,
			ClientSecret: cfg.Identity.Auth0.ClientSecret,
			JWKSCacheTTL: cfg.Identity.Auth0.JWKSCacheTTL,
		})
	case config.IdentityModeLocal:
		return localprovider.New(localprovider.Config{
			Secret: cfg.Identity.Local.Secret,
			Issuer: cfg.Identity.Local.Issuer,
		}), nil
	default:
		return nil, fmt.Errorf("unknown identity mode %q", cfg.Identity.Mode)
	}
}

func buildExportPipeline(cfg *config.Config, db *sqlx.DB, userRepo *repository.UserRepository, applicationRepo *repository.ApplicationRepository, classRepo *repository.ClassRepository, logr *zap.Logger) (*service.ExportJobService, *jobs.Queue, error) {
	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	exportRepo := repository.NewExportRepository(db)
	exporter := service.NewExportService(userRepo, applicationRepo, classRepo, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	worker := service.NewExportWorker(exportRepo, exporter, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})

	exportJobSvc := service.NewExportJobService(exportRepo, queue, exporter, logr, service.ExportJobServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})
	return exportJobSvc, queue, nil
}
