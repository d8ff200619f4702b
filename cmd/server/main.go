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
	billingapp "github.com/storefront/backend/internal/application/billing"
	"github.com/storefront/backend/internal/application/fulfillment"
	appmembership "github.com/storefront/backend/internal/application/membership"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/printing"
	"github.com/storefront/backend/internal/infrastructure/scheduler"
	"github.com/storefront/backend/internal/infrastructure/storage"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
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
	defer logger.Sync(log)

	// OpenTelemetry; no-op unless telemetry.enabled
	otelProviders, err := telemetry.Setup(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = otelProviders.Logs().Bridge(log)

	log.Info("Starting storefront backend",
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
	if err := db.EnableTracing(&cfg.Telemetry, cfg.Database.DBName, log); err != nil {
		log.Fatal("Failed to enable database tracing", zap.Error(err))
	}
	if cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate database", zap.Error(err))
		}
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Object storage for receipt assets
	objects, err := newObjectStorage(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// Repositories
	docs := persistence.NewDocumentStore(db.DB)
	orderRepo := persistence.NewDocumentOrderRepository(docs)
	applicationRepo := persistence.NewDocumentApplicationRepository(docs)
	membershipTypeRepo := persistence.NewDocumentMembershipTypeRepository(docs)
	assetStore := persistence.NewDocumentAssetStore(docs, objects, log)

	// External services
	gateway, err := payment.NewStripeGateway(&payment.StripeConfig{
		SecretKey:        cfg.Stripe.SecretKey,
		WebhookSecret:    cfg.Stripe.WebhookSecret,
		Currency:         cfg.Stripe.Currency,
		SuccessURL:       cfg.Stripe.SuccessURL,
		CancelURL:        cfg.Stripe.CancelURL,
		WebhookTolerance: cfg.Stripe.WebhookTolerance,
	}, payment.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize Stripe gateway", zap.Error(err))
	}

	pdfRenderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Printing.Timeout,
		ExecPath:       cfg.Printing.ChromePath,
		NoSandbox:      cfg.Printing.NoSandbox,
		MaxConcurrent:  cfg.Printing.MaxConcurrent,
		Logger:         log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := pdfRenderer.Close(); err != nil {
			log.Warn("Error closing PDF renderer", zap.Error(err))
		}
	}()

	mailer := mail.NewSMTPMailer(cfg.Mail, log)
	if !cfg.Mail.Enabled() {
		log.Warn("SMTP credentials not configured, receipt emails are disabled")
	}

	// Fulfillment pipeline
	fileReaper := fulfillment.NewFileReaper(cfg.Fulfillment.FileGracePeriod, log)
	pipeline, err := newPipeline(cfg, log, gateway, orderRepo, assetStore, pdfRenderer, mailer, fileReaper)
	if err != nil {
		log.Fatal("Failed to initialize fulfillment pipeline", zap.Error(err))
	}

	// Membership services
	applicationService := appmembership.NewApplicationService(appmembership.ApplicationServiceConfig{
		Applications: applicationRepo,
		Types:        membershipTypeRepo,
		Logger:       log,
	})
	paymentLinkService := appmembership.NewPaymentLinkService(appmembership.PaymentLinkServiceConfig{
		Applications: applicationRepo,
		Types:        membershipTypeRepo,
		Gateway:      gateway,
		Currency:     cfg.Stripe.Currency,
		SuccessURL:   cfg.Stripe.SuccessURL,
		CancelURL:    cfg.Stripe.CancelURL,
		Logger:       log,
	})
	webhookService := billingapp.NewStripeWebhookService(billingapp.StripeWebhookServiceConfig{
		Verifier:    gateway,
		Fulfiller:   pipeline,
		Memberships: applicationService,
		Logger:      log,
	})

	// Abandoned application reaper
	sweeper := appmembership.NewAbandonedApplicationSweeper(applicationRepo, cfg.Reaper.MaxAge, log)
	reaperConfig := scheduler.DefaultApplicationReaperSchedulerConfig()
	reaperConfig.Enabled = cfg.Reaper.Enabled
	if cfg.Reaper.Interval > 0 {
		reaperConfig.Interval = cfg.Reaper.Interval
	}
	reaper, err := scheduler.NewApplicationReaperScheduler(sweeper, log, reaperConfig)
	if err != nil {
		log.Fatal("Failed to initialize application reaper", zap.Error(err))
	}

	// HTTP
	if err := handler.RegisterValidators(); err != nil {
		log.Fatal("Failed to register request validators", zap.Error(err))
	}
	engine := newEngine(cfg, log)
	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine)
	handler.RegisterRoutes(r, handler.Handlers{
		Webhook:    handler.NewStripeWebhookHandler(webhookService),
		Membership: handler.NewMembershipHandler(applicationService, paymentLinkService),
		Orders:     handler.NewOrderHandler(orderRepo),
	}, middleware.AdminAuth(auth.NewJWTService(cfg.JWT)))
	r.Setup()
	for _, route := range r.Routes() {
		log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	rootCtx, stopRoot := context.WithCancel(context.Background())
	defer stopRoot()
	if err := reaper.Start(rootCtx); err != nil {
		log.Fatal("Failed to start application reaper", zap.Error(err))
	}

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
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := reaper.Stop(ctx); err != nil {
		log.Error("Application reaper did not stop cleanly", zap.Error(err))
	}
	fileReaper.Flush()

	log.Info("Server exited gracefully")
}

// newObjectStorage picks S3 when a bucket is configured, else the local
// filesystem.
func newObjectStorage(cfg *config.Config, log *zap.Logger) (storage.ObjectStorage, error) {
	if cfg.Storage.Bucket == "" {
		log.Info("Using local asset storage", zap.String("dir", cfg.Storage.LocalDir))
		return storage.NewLocalObjectStorage(cfg.Storage.LocalDir, "")
	}

	s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Using S3 asset storage", zap.String("bucket", s3.GetBucket()))
	return s3, nil
}

func newPipeline(
	cfg *config.Config,
	log *zap.Logger,
	gateway *payment.StripeGateway,
	orders *persistence.DocumentOrderRepository,
	assets *persistence.DocumentAssetStore,
	pdf printing.PDFRenderer,
	mailer mail.Mailer,
	fileReaper *fulfillment.FileReaper,
) (*fulfillment.Pipeline, error) {
	renderer, err := fulfillment.NewReceiptRenderer(fulfillment.ReceiptRendererConfig{
		PDF:       pdf,
		TempDir:   cfg.Fulfillment.TempDir,
		StoreName: cfg.Fulfillment.StoreName,
		Currency:  cfg.Stripe.Currency,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	dispatcher, err := fulfillment.NewNotificationDispatcher(fulfillment.NotificationDispatcherConfig{
		Mailer:       mailer,
		StoreName:    cfg.Fulfillment.StoreName,
		SupportEmail: cfg.Fulfillment.SupportEmail,
		Currency:     cfg.Stripe.Currency,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	return fulfillment.NewPipeline(fulfillment.PipelineConfig{
		Materializer: fulfillment.NewMaterializer(fulfillment.MaterializerConfig{
			LineItems:     gateway,
			Orders:        orders,
			LineItemLimit: cfg.Fulfillment.LineItemLimit,
			Logger:        log,
		}),
		Renderer:   renderer,
		Publisher:  fulfillment.NewReceiptPublisher(assets, orders, log),
		Dispatcher: dispatcher,
		Reaper:     fileReaper,
		Logger:     log,
	}), nil
}

func newEngine(cfg *config.Config, log *zap.Logger) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies", zap.Error(err))
		}
	}

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Telemetry.ServiceName),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.CORSWithConfig(corsConfig),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)
	return engine
}

// healthHandler reports database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
