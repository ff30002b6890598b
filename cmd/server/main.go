package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appjob "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/workflows"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/auth"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/cache"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/migration"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/persistence"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/plugin"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/scheduler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/telemetry"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/temporal"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/handler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/middleware"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting StoFlow backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	metrics := telemetry.NewMetrics()

	if cfg.Database.AutoMigrate {
		if err := migration.Run(cfg.Database.DSN(), cfg.Database.MigrationsPath, log); err != nil {
			log.Fatal("Failed to apply migrations", zap.Error(err))
		}
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBName:          cfg.Database.DBName,
		}, log)
		if err := dbTracing.Register(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}

	// Repositories
	repos := newRepositories(db.DB)
	locker := persistence.NewPgAdvisoryLocker(sqlDB)

	// Events: in-process audit log, plus RabbitMQ when enabled
	events, closeEvents := newEventPublisher(cfg.RabbitMQ, log)

	// Job services
	jobService := appjob.NewMarketplaceJobService(repos.jobs, locker, log,
		appjob.WithEventPublisher(events),
	)
	batchService := appjob.NewBatchJobService(persistence.NewGormTransactionScope(db.DB), repos.batches, repos.jobs, log,
		appjob.WithBatchEventPublisher(events),
	)

	// Caches
	cacheFactory := cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	tokenCache, err := cacheFactory.CreateTokenCache()
	if err != nil {
		log.Fatal("Failed to create token cache", zap.Error(err))
	}
	attributeCache, err := cacheFactory.CreateAttributeCache()
	if err != nil {
		log.Fatal("Failed to create attribute cache", zap.Error(err))
	}
	mappingService := mapping.NewVintedMappingService(repos.vintedMapping, attributeCache, cfg.Vinted.AttributeCache, log)

	// Marketplaces
	bridge := plugin.NewBridge(plugin.BridgeConfigFrom(cfg.Vinted), metrics, log.Named("plugin"))
	strategies := newStrategies(cfg, repos, bridge, mappingService, tokenCache, metrics, log)
	dispatcher := jobhandler.NewDispatcher(jobhandler.NewHandlers(repos.products, strategies, log)...)
	log.Info("Job handlers registered", zap.Int("actions", len(dispatcher.Actions())))

	// Background job processing
	var (
		runner  *scheduler.Runner
		sweeper *scheduler.Sweeper
	)
	if cfg.Jobs.Enabled {
		runnerConfig := scheduler.DefaultRunnerConfig()
		runnerConfig.Workers = cfg.Jobs.Workers
		runnerConfig.PollInterval = cfg.Jobs.PollInterval
		runnerConfig.CancelPollInterval = cfg.Jobs.CancelPollInterval
		runnerConfig.Marketplaces = parseMarketplaces(cfg.Jobs.Marketplaces, log)

		runner = scheduler.NewRunner(runnerConfig, jobService, locker, dispatcher, log.Named("job_runner"),
			scheduler.WithBatchProgress(batchService),
			scheduler.WithMetrics(metrics),
		)
		if err := runner.Start(ctx); err != nil {
			log.Fatal("Failed to start job runner", zap.Error(err))
		}

		sweeper = scheduler.NewSweeper(scheduler.SweeperConfig{
			Interval:        cfg.Jobs.SweepInterval,
			OrphanThreshold: cfg.Jobs.OrphanThreshold,
			Retention:       cfg.Jobs.Retention,
		}, jobService, batchService, metrics, log.Named("sweeper"))
		if err := sweeper.Start(ctx); err != nil {
			log.Fatal("Failed to start sweeper", zap.Error(err))
		}
	}

	// Durable sync workflows
	var (
		workflowClient workflows.WorkflowClient
		worker         *temporal.Worker
	)
	if cfg.Temporal.Enabled {
		c, err := temporal.Dial(cfg.Temporal, log)
		if err != nil {
			log.Fatal("Failed to connect to Temporal", zap.Error(err))
		}
		defer c.Close()
		worker = temporal.NewWorker(c, cfg.Temporal.TaskQueue, workflows.NewActivities(dispatcher, log), log)
		if err := worker.Start(); err != nil {
			log.Fatal("Failed to start Temporal worker", zap.Error(err))
		}
		workflowClient = c
	}
	syncService := workflows.NewSyncService(workflowClient, cfg.Temporal.TaskQueue)

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to set up request validation", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT)
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version).
		WithCheck("database", db.Ping)
	jobHandler := handler.NewJobHandler(jobService)
	batchHandler := handler.NewBatchHandler(batchService)
	if runner != nil {
		jobHandler.WithNotifier(runner)
		batchHandler.WithNotifier(runner)
	}

	engine := router.New(router.Options{
		HTTP:           cfg.HTTP,
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: tracer.IsEnabled(),
		Auth:           jwtService,
		Metrics:        metrics,
		Logger:         log,
	}, router.Handlers{
		Jobs:      jobHandler,
		Batches:   batchHandler,
		Mappings:  handler.NewMappingHandler(mappingService),
		Products:  handler.NewProductHandler(repos.products),
		Workflows: handler.NewWorkflowHandler(syncService),
		Plugin:    handler.NewPluginHandler(bridge, jwtService),
		System:    systemHandler,
	})

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// stop claiming before the sockets go away; running jobs are requeued
	if runner != nil {
		if err := runner.Stop(shutdownCtx); err != nil {
			log.Error("Job runner did not stop cleanly", zap.Error(err))
		}
	}
	if sweeper != nil {
		if err := sweeper.Stop(shutdownCtx); err != nil {
			log.Error("Sweeper did not stop cleanly", zap.Error(err))
		}
	}
	if worker != nil {
		worker.Stop()
	}
	bridge.Close()
	closeEvents()
	if err := cacheFactory.Close(); err != nil {
		log.Error("Error closing Redis", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
