package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/gradebook-api/api/swagger"
	"github.com/noah-isme/gradebook-api/internal/display"
	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/handler"
	internalmiddleware "github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/repository"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/cache"
	"github.com/noah-isme/gradebook-api/pkg/config"
	"github.com/noah-isme/gradebook-api/pkg/database"
	"github.com/noah-isme/gradebook-api/pkg/jobs"
	"github.com/noah-isme/gradebook-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/gradebook-api/pkg/middleware/requestid"
)

// @title Gradebook API
// @version 1.0.0
// @description Course grade computation, rosters and gradebook administration
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

	policy, err := grading.ParsePolicy(cfg.Grading.EmptyCategoryPolicy, cfg.Grading.UngradedPolicy)
	if err != nil {
		logr.Fatal("invalid grading policy", zap.Error(err))
	}
	formatter, err := display.New(display.Options{
		Locale:          cfg.Display.Locale,
		Decimals:        cfg.Display.Decimals,
		Placeholder:     cfg.Display.Placeholder,
		UnassignedLabel: cfg.Display.UnassignedLabel,
	})
	if err != nil {
		logr.Fatal("invalid display options", zap.Error(err))
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, roster cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Roster.CacheTTL, logr, cfg.Roster.CacheEnabled && redisClient != nil)
	validate := validator.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	properties := service.NewPropertyService(repository.NewPropertyRepository(db), validate, logr)
	if err := properties.Load(ctx); err != nil {
		logr.Fatal("failed to load properties", zap.Error(err))
	}

	courseGrades := service.NewCourseGradeService(
		repository.NewSnapshotRepository(db),
		grading.NewEngine(policy),
		formatter,
		cacheSvc,
		metrics,
		validate,
		logr,
		service.RosterConfig{
			CacheTTL:        cfg.Roster.CacheTTL,
			DefaultPageSize: cfg.Roster.DefaultPageSize,
			MaxPageSize:     cfg.Roster.MaxPageSize,
		},
	)

	refresher := service.NewRosterRefresher(courseGrades, nil, metrics, logr)
	queue := jobs.NewQueue("roster", refresher.Handle, jobs.QueueConfig{
		Workers:    cfg.Roster.WorkerConcurrency,
		BufferSize: cfg.Roster.WorkerBufferSize,
		MaxRetries: cfg.Roster.WorkerRetries,
		RetryDelay: cfg.Roster.RetryDelay,
		Logger:     logr,
	})
	refresher.SetQueue(queue)
	if err := metrics.TrackQueue("roster", func() int { return queue.Stats().Pending }); err != nil {
		logr.Warn("failed to register queue metrics", zap.Error(err))
	}
	queue.Start(ctx)
	defer queue.Stop()

	gradebooks := service.NewGradebookService(service.GradebookStores{
		Gradebooks:   repository.NewGradebookRepository(db),
		Categories:   repository.NewCategoryRepository(db),
		Assignments:  repository.NewAssignmentRepository(db),
		Grades:       repository.NewGradeRecordRepository(db),
		CourseGrades: repository.NewCourseGradeRepository(db),
		Enrollments:  repository.NewEnrollmentRepository(db),
	}, properties, refresher, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health", "/ready"))
	r.Use(internalmiddleware.WithResponseMeta())

	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = cacheRepo
	}
	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Gradebooks: handler.NewGradebookHandler(gradebooks),
		Grades:     handler.NewGradeHandler(courseGrades),
		Properties: handler.NewPropertyHandler(properties),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
