package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	addressapp "github.com/vidahome/backend/internal/application/address"
	syncapp "github.com/vidahome/backend/internal/application/sync"
	translationapp "github.com/vidahome/backend/internal/application/translation"
	"github.com/vidahome/backend/internal/infrastructure/cache"
	"github.com/vidahome/backend/internal/infrastructure/config"
	"github.com/vidahome/backend/internal/infrastructure/logger"
	"github.com/vidahome/backend/internal/infrastructure/persistence"
	"github.com/vidahome/backend/internal/infrastructure/ratelimit"
	"github.com/vidahome/backend/internal/infrastructure/registry"
	"github.com/vidahome/backend/internal/infrastructure/scheduler"
	"github.com/vidahome/backend/internal/infrastructure/sourceapi"
	"github.com/vidahome/backend/internal/infrastructure/translation"
	"github.com/vidahome/backend/internal/interfaces/http/handler"
	"github.com/vidahome/backend/internal/interfaces/http/middleware"
	"github.com/vidahome/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting VidaHome listing backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Lookup cache: Redis when enabled, in-memory otherwise
	var store cache.Store
	if cfg.Redis.Enabled {
		store, err = cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		log.Info("Redis lookup cache connected")
	} else {
		store = cache.NewInMemoryStore()
	}
	defer func() {
		_ = store.Close()
	}()

	// Repositories
	listingRepo := persistence.NewGormListingRepository(db.DB)
	progressRepo := persistence.NewGormSyncProgressRepository(db.DB)
	translationLogRepo := persistence.NewGormTranslationLogRepository(db.DB)

	// Outbound clients
	sourceClient := sourceapi.NewClient(sourceapi.Config{
		BaseURL:      cfg.Source.BaseURL,
		AgencyNumber: cfg.Source.AgencyNumber,
		AgencySuffix: cfg.Source.AgencySuffix,
		Password:     cfg.Source.Password,
		LanguageID:   cfg.Source.LanguageID,
		Domain:       cfg.Source.Domain,
		ClientIP:     cfg.Source.ClientIP,
		PhotoBaseURL: cfg.Source.PhotoBaseURL,
		UserAgent:    cfg.Source.UserAgent,
		Timeout:      cfg.Source.Timeout,
		PageSize:     cfg.Source.PageSize,
	}, log)

	limiter := ratelimit.NewFixedWindow(cfg.Registry.RateLimitCalls, cfg.Registry.RateLimitWindow)
	registryClient := registry.NewClient(registry.Config{
		BaseURLs: cfg.Registry.BaseURLs,
		Timeout:  cfg.Registry.Timeout,
	}, limiter, log)

	translator, err := translation.NewClient(translation.Config{
		APIURL:          cfg.Translation.APIURL,
		APIKey:          cfg.Translation.APIKey,
		Model:           cfg.Translation.Model,
		Temperature:     cfg.Translation.Temperature,
		PricePerKTokens: cfg.Translation.PricePerKTokens,
		MaxSourceChars:  cfg.Translation.MaxSourceChars,
		Timeout:         cfg.Translation.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to build translation client", zap.Error(err))
	}

	// Application services
	orchestrator := syncapp.NewOrchestrator(syncapp.Config{
		PageSize:         cfg.Source.PageSize,
		DefaultBatchSize: cfg.Sync.DefaultBatchSize,
		MaxBatchSize:     cfg.Sync.MaxBatchSize,
		WriteDelay:       cfg.Sync.WriteDelay,
	}, sourceClient, listingRepo, progressRepo, log)

	translationSvc := translationapp.NewService(translator, listingRepo, translationLogRepo, log)
	addressSvc := addressapp.NewService(registryClient, store, cfg.Registry.CacheTTL, log)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.BodyLimit(1<<20),
	)

	authMW := middleware.SyncSecret(cfg.Auth.SyncSecret)
	r := router.NewRouter(engine)
	r.Register(handler.NewSystemHandler(db)).
		Register(handler.NewSyncHandler(orchestrator, authMW)).
		Register(handler.NewTranslationHandler(translationSvc, authMW)).
		Register(handler.NewCatastroHandler(addressSvc))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Background incremental sync
	syncScheduler, err := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
		Enabled:    cfg.Scheduler.Enabled,
		Interval:   cfg.Scheduler.Interval,
		BatchSize:  cfg.Scheduler.BatchSize,
		JobTimeout: cfg.Scheduler.JobTimeout,
	}, orchestrator, log)
	if err != nil {
		log.Fatal("Failed to build sync scheduler", zap.Error(err))
	}
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}
	defer syncScheduler.Stop()

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
