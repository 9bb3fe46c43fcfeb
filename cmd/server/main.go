package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/captech/portal/internal/application/accounting"
	"github.com/captech/portal/internal/application/dashboard"
	"github.com/captech/portal/internal/application/document"
	"github.com/captech/portal/internal/application/export"
	"github.com/captech/portal/internal/application/insight"
	"github.com/captech/portal/internal/infrastructure/cache"
	"github.com/captech/portal/internal/infrastructure/config"
	"github.com/captech/portal/internal/infrastructure/event"
	"github.com/captech/portal/internal/infrastructure/jobs"
	"github.com/captech/portal/internal/infrastructure/logger"
	"github.com/captech/portal/internal/infrastructure/persistence"
	"github.com/captech/portal/internal/infrastructure/printing"
	"github.com/captech/portal/internal/infrastructure/storage"
	"github.com/captech/portal/internal/interfaces/http/handler"
	"github.com/captech/portal/internal/interfaces/http/middleware"
	"github.com/captech/portal/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting portal backend", zap.String("addr", cfg.Server.Addr()))

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Event bus first: the invoice and payment repositories publish on it
	eventBus := event.NewInMemoryEventBus(log)

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB, eventBus)
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	turnoverRepo := persistence.NewGormTurnoverEntryRepository(db.DB)

	// Snapshot cache: Redis when enabled, in-process otherwise
	var snapshotCache dashboard.SnapshotCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.NewRedisSnapshotCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		snapshotCache = redisCache
		log.Info("Redis snapshot cache enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		snapshotCache = cache.NewInMemorySnapshotCache()
		log.Info("In-process snapshot cache enabled")
	}

	dashboardService := dashboard.NewService(
		invoiceRepo, customerRepo, turnoverRepo, snapshotCache,
		dashboard.WithLogger(log),
	)
	dashboardOptions := dashboard.Options{
		PageSize: cfg.Dashboard.PageSize,
		UseCache: cfg.Dashboard.UseCache,
		TTL:      cfg.Dashboard.CacheTTL,
	}

	// Billing writes invalidate the dashboard snapshot
	invalidationHandler := dashboard.NewInvalidationHandler(dashboardService, log)
	eventBus.Subscribe(invalidationHandler)
	log.Info("Dashboard invalidation registered",
		zap.Strings("events", invalidationHandler.EventTypes()))

	insightService := insight.NewService(invoiceRepo, customerRepo,
		insight.WithLogger(log),
		insight.WithRules(insight.DefaultRules(
			decimal.NewFromFloat(cfg.Insight.LowMarginThresholdPct),
			cfg.Insight.LostMonths,
		)...),
	)

	accountingService := accounting.NewService(invoiceRepo, customerRepo)

	// Export pipeline: job store, artifact storage and the worker
	exportStore := export.NewStore()
	var artifactStorage export.ObjectStorage
	if cfg.Storage.Driver == "s3" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize S3 storage", zap.Error(err))
		}
		artifactStorage = s3Storage
		log.Info("S3 artifact storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		artifactStorage = storage.NewMemoryObjectStorage()
		log.Info("In-memory artifact storage enabled")
	}
	exportRunner := jobs.NewExportRunner(accountingService, artifactStorage, exportStore, cfg.Export.QueueSize, log)
	exportRunner.Start()
	defer exportRunner.Stop()
	exportService := export.NewService(exportRunner, exportStore)

	// PDF pipeline
	pdfRenderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.PDF.Timeout,
		ExecPath:       cfg.PDF.ChromePath,
		NoSandbox:      true,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := pdfRenderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()
	printer := printing.NewDocumentPrinter(pdfRenderer, cfg.PDF.Timeout)
	documentService := document.NewService(invoiceRepo, quoteRepo, customerRepo, companyRepo, printer)

	gin.SetMode(gin.ReleaseMode)
	middleware.SetupValidator()
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))
	engine.Use(middleware.CompanyScopeWithConfig(middleware.CompanyConfig{
		SkipPaths: []string{"/health"},
		Logger:    log,
	}))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewDashboardHandler(dashboardService, dashboardOptions)).
		Register(handler.NewInsightHandler(insightService)).
		Register(handler.NewAccountingHandler(accountingService)).
		Register(handler.NewExportHandler(exportService)).
		Register(handler.NewDocumentHandler(documentService))
	r.Setup()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
