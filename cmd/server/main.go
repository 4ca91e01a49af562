package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appintegration "github.com/katanaluca/backend/internal/application/integration"
	"github.com/katanaluca/backend/internal/infrastructure/config"
	"github.com/katanaluca/backend/internal/infrastructure/event"
	"github.com/katanaluca/backend/internal/infrastructure/katana"
	"github.com/katanaluca/backend/internal/infrastructure/lock"
	"github.com/katanaluca/backend/internal/infrastructure/logger"
	"github.com/katanaluca/backend/internal/infrastructure/luca"
	"github.com/katanaluca/backend/internal/infrastructure/persistence"
	"github.com/katanaluca/backend/internal/infrastructure/scheduler"
	"github.com/katanaluca/backend/internal/interfaces/http/handler"
	"github.com/katanaluca/backend/internal/interfaces/http/router"
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
		_ = log.Sync()
	}()

	log.Info("Starting Katana-Luca sync engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	syncMappingRepo := persistence.NewGormSyncMappingRepository(db.DB)
	failedRecordRepo := persistence.NewGormFailedRecordRepository(db.DB)
	codeMappingStore := persistence.NewGormCodeMappingStore(db.DB)
	correctionRepo := persistence.NewGormDataCorrectionRepository(db.DB)
	approvalRepo := persistence.NewGormApprovalRecordRepository(db.DB)

	// Initialize vendor clients
	katanaClient, err := katana.NewClient(&katana.Config{
		BaseURL:          cfg.Katana.BaseURL,
		APIKey:           cfg.Katana.APIKey,
		Timeout:          cfg.Katana.Timeout,
		MaxResponseBytes: cfg.Katana.MaxResponseBytes,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize Katana client", zap.Error(err))
	}

	lucaClient, err := luca.NewClient(&luca.Config{
		BaseURL:          cfg.Luca.BaseURL,
		Username:         cfg.Luca.Username,
		Password:         cfg.Luca.Password,
		CompanyID:        cfg.Luca.CompanyID,
		Timeout:          cfg.Luca.Timeout,
		SessionTTL:       cfg.Luca.SessionTTL,
		MaxResponseBytes: cfg.Luca.MaxResponseBytes,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize Luca client", zap.Error(err))
	}

	// Pass locking: Redis coordinates across instances, the local locker
	// covers single-instance deployments
	var passLocker appintegration.PassLocker
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			_ = redisClient.Close()
		}()
		passLocker = lock.NewRedisPassLocker(redisClient, cfg.Sync.LockTTL)
		log.Info("Pass locking via Redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		passLocker = lock.NewLocalPassLocker()
		log.Info("Pass locking in-process")
	}

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize application services
	orchestrator := appintegration.NewSyncOrchestrator(
		katanaClient,
		lucaClient,
		syncMappingRepo,
		failedRecordRepo,
		codeMappingStore,
		passLocker,
		eventBus,
		log,
		appintegration.OrchestratorConfig{
			Concurrency:       cfg.Sync.Concurrency,
			WatermarkLookback: cfg.Sync.WatermarkLookback,
		},
	)

	failedRecordService := appintegration.NewFailedRecordService(
		failedRecordRepo,
		orchestrator,
		eventBus,
		log,
		appintegration.RetryPolicy{
			MaxRetries: cfg.Sync.MaxRetries,
			BaseDelay:  cfg.Sync.RetryBaseDelay,
			MaxDelay:   cfg.Sync.RetryMaxDelay,
			SweepBatch: cfg.Sync.RetryBatchSize,
		},
	)

	statusService := appintegration.NewStatusService(syncMappingRepo, failedRecordRepo)

	reconciliationService := appintegration.NewReconciliationService(
		katanaClient,
		lucaClient,
		syncMappingRepo,
		log,
		appintegration.ComparisonConfig{
			Epsilon: cfg.Sync.ComparisonEpsilon,
			Scale:   cfg.Sync.ComparisonScale,
		},
	)

	correctionService := appintegration.NewCorrectionService(correctionRepo, katanaClient, orchestrator, log)
	approvalService := appintegration.NewApprovalService(approvalRepo, katanaClient, orchestrator, eventBus, log)
	codeMappingService := appintegration.NewCodeMappingService(codeMappingStore, log)

	// Start schedulers
	syncScheduler := scheduler.NewSyncScheduler(orchestrator, log, scheduler.SyncSchedulerConfig{
		Enabled:    cfg.Scheduler.Enabled,
		Interval:   cfg.Scheduler.SyncInterval,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sync scheduler", zap.Error(err))
	}

	sweepScheduler := scheduler.NewRetrySweepScheduler(failedRecordService, log, scheduler.RetrySweepSchedulerConfig{
		Enabled:    cfg.Scheduler.Enabled,
		Interval:   cfg.Scheduler.RetrySweepInterval,
		JobTimeout: cfg.Scheduler.JobTimeout,
	})
	if err := sweepScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start retry sweep scheduler", zap.Error(err))
	}

	// HTTP surface
	engine, err := router.NewEngine(cfg, log)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	router.NewRouter(engine).Register(
		handler.NewHealthHandler(db),
		handler.NewSyncHandler(statusService, orchestrator),
		handler.NewFailedRecordHandler(failedRecordService),
		handler.NewReconciliationHandler(reconciliationService),
		handler.NewCorrectionHandler(correctionService),
		handler.NewCodeMappingHandler(codeMappingService),
		handler.NewApprovalHandler(approvalService),
	).Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop taking requests, finish running passes, then
	// tear down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := syncScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Sync scheduler shutdown failed", zap.Error(err))
	}
	if err := sweepScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Retry sweep scheduler shutdown failed", zap.Error(err))
	}

	log.Info("Shutdown complete")
}
