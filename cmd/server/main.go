package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	acquisitionapp "github.com/matflow/backend/internal/application/acquisition"
	ledgerapp "github.com/matflow/backend/internal/application/ledger"
	productionapp "github.com/matflow/backend/internal/application/production"
	"github.com/matflow/backend/internal/application/txn"
	"github.com/matflow/backend/internal/infrastructure/auth"
	"github.com/matflow/backend/internal/infrastructure/cache"
	"github.com/matflow/backend/internal/infrastructure/config"
	"github.com/matflow/backend/internal/infrastructure/event"
	"github.com/matflow/backend/internal/infrastructure/lock"
	"github.com/matflow/backend/internal/infrastructure/logger"
	"github.com/matflow/backend/internal/infrastructure/persistence"
	"github.com/matflow/backend/internal/infrastructure/telemetry"
	"github.com/matflow/backend/internal/interfaces/http/handler"
	"github.com/matflow/backend/internal/interfaces/http/middleware"
	"github.com/matflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}

	// Bootstrap logger for telemetry setup; replaced once the log bridge exists
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	tel, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			bootLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()

	log, err := logger.New(logCfg, tel.LogCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting material flow backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// Database with zap-backed GORM logging and query tracing
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithRetryableErrors(persistence.IsLockContention),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracing(cfg.Telemetry, cfg.Database.DBName), log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	// Postgres schemas are owned by cmd/migrate
	if cfg.Database.Driver == config.DriverSQLite {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate SQLite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	// Per-material locks
	locker, closeLocker, err := lock.New(cfg.Engine, cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to initialize material locks", zap.Error(err))
	}
	defer func() {
		if err := closeLocker(); err != nil {
			log.Error("Error closing lock backend", zap.Error(err))
		}
	}()

	// Repositories
	materialRepo := persistence.NewGormMaterialRepository(db.DB)
	entryRepo := persistence.NewGormLedgerEntryRepository(db.DB)
	acquisitionRepo := persistence.NewGormAcquisitionRepository(db.DB)
	processedRepo := persistence.NewGormProcessedMaterialRepository(db.DB)
	planRepo := persistence.NewGormPlanRepository(db.DB)
	templateRepo := persistence.NewGormTemplateRepository(db.DB)

	// Event bus: events are published only after their transaction commits
	eventBus := event.NewInMemoryEventBus(log)
	lowStockHandler := event.NewLowStockHandler(log)
	eventBus.Subscribe(lowStockHandler)

	flowMetrics, err := telemetry.NewFlowMetrics(telemetry.FlowMetricsConfig{
		Meter:         tel.AppMeter(),
		Logger:        log,
		StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize flow metrics", zap.Error(err))
	}
	flowMetricsHandler := event.NewFlowMetricsHandler(flowMetrics)
	eventBus.Subscribe(flowMetricsHandler)

	log.Info("Event handlers registered",
		zap.Strings("low_stock_events", lowStockHandler.EventTypes()),
		zap.Strings("flow_metrics_events", flowMetricsHandler.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	flowMetrics.StartPeriodicCollection(metricsCtx, 0)
	defer flowMetrics.Stop()

	// Every stock-changing operation runs through one atomic runner
	runner := txn.NewAtomicRunner(persistence.NewGormTransactionScope(db.DB), locker, log)
	runner.SetEventPublisher(eventBus)
	if cfg.Engine.MaxConflictRetries > 0 {
		runner.SetMaxRetries(cfg.Engine.MaxConflictRetries)
	}

	// Application services
	ledgerService := ledgerapp.NewService(runner, materialRepo, entryRepo, ledgerapp.Options{
		AllowNegativeStock: cfg.Engine.AllowNegativeStock,
	}, log)
	lifecycleService := acquisitionapp.NewLifecycleService(runner, acquisitionRepo, materialRepo, log)
	processorService := acquisitionapp.NewProcessorService(runner, acquisitionRepo, processedRepo, acquisitionapp.ProcessorOptions{
		AllowOverProcessing: cfg.Engine.AllowOverProcessing,
	}, log)
	plannerService := productionapp.NewPlannerService(runner, planRepo, templateRepo, materialRepo, productionapp.PlannerOptions{
		SaveTemplateOnDrift: cfg.Engine.SaveTemplateOnDrift,
	}, log)
	receiverService := productionapp.NewReceiverService(runner, planRepo, productionapp.ReceiverOptions{
		CreditTargetWithExplicitOutputs: cfg.Engine.CreditTargetWithExplicitOutputs,
	}, log)

	// Set Gin mode based on environment
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order: request id first so every later layer can tag with it,
	// tracing before metrics so the span covers the whole request.
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: tel.Meter,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Health checks (outside API versioning and authentication)
	healthHandler := handler.NewHealthHandler(db)
	engine.GET("/health", healthHandler.Live)
	engine.GET("/health/ready", healthHandler.Ready)

	jwtConfig := middleware.DefaultJWTConfig(auth.NewTokenValidator(cfg.JWT))
	jwtConfig.AllowHeaderActor = cfg.JWT.AllowHeaderActor && !cfg.App.IsProduction()
	jwtConfig.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1")).
		Use(middleware.Timeout(cfg.HTTP.WriteTimeout)).
		Use(middleware.JWTAuth(jwtConfig)).
		Use(middleware.TracingAttributeInjector())

	// Idempotency keys are scoped per actor, so they run after authentication
	if cfg.HTTP.IdempotencyEnabled {
		idempotencyStore, err := cache.NewIdempotencyStore(cfg.HTTP.IdempotencyBackend, cfg.Redis, cfg.HTTP.IdempotencyFallback, log)
		if err != nil {
			log.Fatal("Failed to initialize idempotency store", zap.Error(err))
		}
		defer func() {
			if err := idempotencyStore.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		r.Use(middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  idempotencyStore,
			TTL:    cfg.HTTP.IdempotencyTTL,
			Logger: log,
		}))
	}
	router.RegisterAPI(r, router.Handlers{
		Materials:    handler.NewMaterialHandler(ledgerService),
		Acquisitions: handler.NewAcquisitionHandler(lifecycleService, processorService),
		Plans:        handler.NewProductionPlanHandler(plannerService, receiverService),
		Templates:    handler.NewTemplateHandler(plannerService),
	})
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}
