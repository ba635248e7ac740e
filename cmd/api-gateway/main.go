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
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/class-series-api/api/swagger"
	"github.com/noah-isme/class-series-api/internal/handler"
	internalmiddleware "github.com/noah-isme/class-series-api/internal/middleware"
	"github.com/noah-isme/class-series-api/internal/repository"
	"github.com/noah-isme/class-series-api/internal/service"
	"github.com/noah-isme/class-series-api/pkg/cache"
	"github.com/noah-isme/class-series-api/pkg/config"
	"github.com/noah-isme/class-series-api/pkg/database"
	"github.com/noah-isme/class-series-api/pkg/export"
	"github.com/noah-isme/class-series-api/pkg/jobs"
	"github.com/noah-isme/class-series-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-series-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-series-api/pkg/middleware/requestid"
)

// @title Class Series API
// @version 1.0.0
// @description Recurring class series consolidation and enrollment state
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metricsSvc := service.NewMetricsService()
	instances := repository.NewClassInstanceRepository(db)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewSnapshotCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Snapshot.CacheTTL, logr, cfg.Snapshot.CacheEnabled)
	}

	store := service.NewSnapshotStore(instances, cacheSvc, metricsSvc, logr, time.Now, service.SnapshotConfig{
		PastDays:   cfg.Snapshot.PastDays,
		FutureDays: cfg.Snapshot.FutureDays,
		MaxAge:     cfg.Snapshot.MaxAge,
		Location:   cfg.Engine.Location(),
	})

	sessions := newSessionStore(cfg, redisClient, logr)
	notifier := service.NewProposalNotifier(sessions, logr, time.Now)
	queue := jobs.NewQueue(service.JobTypeExtensionProposal, notifier.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifier.Workers,
		MaxRetries: cfg.Notifier.Retries,
		RetryDelay: cfg.Notifier.RetryDelay,
		Logger:     logr,
	})
	notifier.Bind(queue)
	queue.Start(ctx)
	defer queue.Stop()

	seriesSvc := service.NewSeriesService(store, metricsSvc, logr)
	expirationSvc := service.NewExpirationService(seriesSvc, store, sessions, notifier, metricsSvc, logr)
	enrollmentSvc := service.NewEnrollmentService(store, instances, metricsSvc, logr)
	bulkSvc := service.NewBulkService(seriesSvc, store, instances, service.NewValidator(), metricsSvc, logr)
	exportSvc := service.NewExportService(store, logr, export.NewCSVExporter(), export.NewPDFExporter())
	tokens := service.NewTokenVerifier(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.RouteMetrics(metricsSvc))

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Instances: handler.NewInstanceHandler(enrollmentSvc),
		Series:    handler.NewSeriesHandler(seriesSvc, expirationSvc, bulkSvc),
		Sessions:  handler.NewSessionHandler(expirationSvc),
		Days:      handler.NewDayHandler(bulkSvc, exportSvc),
	}, tokens, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "timezone", cfg.Engine.Location().String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newSessionStore(cfg *config.Config, client *redis.Client, logr *zap.Logger) service.SessionStateStore {
	if cfg.Session.Backend == config.SessionBackendRedis {
		if client != nil {
			return repository.NewSessionStateRepository(client, cfg.Session.TTL)
		}
		logr.Warn("redis session backend requested without redis, using memory")
	}
	return service.NewMemorySessionStore(cfg.Session.TTL, time.Now)
}
